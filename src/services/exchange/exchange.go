// Package exchange implements the optimistic send protocol: a provisional
// message is shown immediately and later either replaced by the backend's
// confirmed pair or removed.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"llmchat/src/models"

	"go.uber.org/zap"
)

// ErrAlreadyCompleted is returned when Complete is called on an exchange
// that has already run.
var ErrAlreadyCompleted = errors.New("exchange already completed")

// State is the lifecycle of a single send.
type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

// Sender delivers a message to the backend.
type Sender interface {
	SendMessage(ctx context.Context, content, conversationID string) (*models.SendResult, error)
}

// Store is the conversation state the protocol mutates.
type Store interface {
	BeginExchange(provisional models.Message) (string, error)
	CommitExchange(target, provisionalID string, res *models.SendResult) string
	RollbackExchange(target, provisionalID string)
	LoadConversations(ctx context.Context) ([]models.Conversation, error)
}

// Protocol runs sends against a Store.
type Protocol struct {
	store       Store
	sender      Sender
	logger      *zap.Logger
	sendTimeout time.Duration
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithLogger sets the protocol's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Protocol) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSendTimeout bounds the backend round trip. Zero means no bound.
func WithSendTimeout(d time.Duration) Option {
	return func(p *Protocol) {
		if d >= 0 {
			p.sendTimeout = d
		}
	}
}

// NewProtocol creates a protocol over store and sender.
func NewProtocol(store Store, sender Sender, opts ...Option) *Protocol {
	p := &Protocol{store: store, sender: sender, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pending is a send whose provisional message is already in the store.
type Pending struct {
	// Provisional is the optimistic user message.
	Provisional models.Message
	// Target is the conversation key the exchange belongs to; "" is the draft.
	Target string

	p       *Protocol
	content string

	mu      sync.Mutex
	state   State
	started bool
}

// State returns the exchange's current state.
func (x *Pending) State() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

// Begin validates content and inserts the provisional message into the
// current conversation. Nothing changes when it returns an error.
func (p *Protocol) Begin(content string) (*Pending, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &models.ValidationError{Message: "message content cannot be empty"}
	}

	provisional := models.NewUserMessage(content)
	target, err := p.store.BeginExchange(provisional)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("exchange pending", zap.String("target", target), zap.String("provisional_id", provisional.ID))
	return &Pending{
		Provisional: provisional,
		Target:      target,
		p:           p,
		content:     content,
		state:       StatePending,
	}, nil
}

// Complete sends the message and reconciles the store with the outcome. It
// returns the conversation id the exchange ended up in. Calling it more than
// once is an error.
func (x *Pending) Complete(ctx context.Context) (string, error) {
	x.mu.Lock()
	if x.started {
		x.mu.Unlock()
		return "", ErrAlreadyCompleted
	}
	x.started = true
	x.mu.Unlock()

	p := x.p
	sendCtx := ctx
	if p.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, p.sendTimeout)
		defer cancel()
	}

	conversationID := ""
	if x.Target != "" && !models.IsLocalID(x.Target) {
		conversationID = x.Target
	}

	res, err := p.sender.SendMessage(sendCtx, x.content, conversationID)
	if err != nil {
		p.store.RollbackExchange(x.Target, x.Provisional.ID)
		x.setState(StateRolledBack)
		p.logger.Warn("send failed, provisional message removed",
			zap.String("target", x.Target), zap.String("provisional_id", x.Provisional.ID), zap.Error(err))
		return "", fmt.Errorf("message not delivered: %w", err)
	}

	key := p.store.CommitExchange(x.Target, x.Provisional.ID, res)
	x.setState(StateCommitted)
	p.logger.Debug("exchange committed", zap.String("conversation_id", key),
		zap.String("message_id", res.Message.ID), zap.String("assistant_id", res.AssistantResponse.ID))

	// The refresh is not bounded by the send timeout.
	if conversationID == "" {
		if _, err := p.store.LoadConversations(ctx); err != nil {
			p.logger.Warn("conversation list refresh after send failed", zap.Error(err))
		}
	}
	return key, nil
}

func (x *Pending) setState(s State) {
	x.mu.Lock()
	x.state = s
	x.mu.Unlock()
}

// Send is Begin followed by Complete.
func (p *Protocol) Send(ctx context.Context, content string) (string, error) {
	x, err := p.Begin(content)
	if err != nil {
		return "", err
	}
	return x.Complete(ctx)
}
