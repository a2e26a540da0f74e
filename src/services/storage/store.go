package storage

import (
	"context"
	"sync"

	"llmchat/src/models"

	"go.uber.org/zap"
)

// draftKey addresses the message list shown when no conversation is current.
const draftKey = ""

// defaultTitle is shown in the chat header when no conversation is current.
const defaultTitle = "Assistant"

// Store is the in-memory conversation state consumed by the UI. It is safe for
// concurrent use and never holds its lock across backend calls.
type Store struct {
	repo   ConversationRepository
	logger *zap.Logger

	mu            sync.Mutex
	conversations []models.Conversation
	threads       map[string][]models.Message
	threadVer     map[string]uint64
	currentID     string
	inFlight      map[string]models.Message
	loadSeq       uint64
	appliedSeq    uint64
	listeners     map[int]func()
	nextListener  int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store seeded with the placeholder list and no current
// conversation.
func NewStore(repo ConversationRepository, opts ...StoreOption) *Store {
	s := &Store{
		repo:          repo,
		logger:        zap.NewNop(),
		conversations: Placeholders(),
		threads:       map[string][]models.Message{draftKey: {}},
		threadVer:     make(map[string]uint64),
		inFlight:      make(map[string]models.Message),
		listeners:     make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every state change. fn runs on
// whichever goroutine made the change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notifyLocked snapshots the listeners; call the result after unlocking.
func (s *Store) notifyLocked() func() {
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn()
		}
	}
}

// LoadConversations refreshes the list from the backend. On failure the
// existing list is kept and the error returned. A response from a load that
// started before the most recently applied one is dropped.
func (s *Store) LoadConversations(ctx context.Context) ([]models.Conversation, error) {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	convs, err := s.repo.List(ctx)

	s.mu.Lock()
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("failed to load conversations, keeping current list", zap.Error(err))
		return nil, err
	}
	if seq < s.appliedSeq {
		out := models.CloneConversations(s.conversations)
		s.mu.Unlock()
		s.logger.Debug("dropping stale conversation list", zap.Uint64("seq", seq), zap.Uint64("applied", s.appliedSeq))
		return out, nil
	}
	s.appliedSeq = seq

	if len(convs) == 0 && s.placeholderOnlyLocked() {
		out := models.CloneConversations(s.conversations)
		s.mu.Unlock()
		return out, nil
	}

	next := make([]models.Conversation, 0, len(convs)+len(s.conversations))
	for _, c := range s.conversations {
		if c.Origin == models.OriginLocal {
			next = append(next, c)
		}
	}
	for _, c := range convs {
		c = c.Clone()
		c.Origin = models.OriginRemote
		next = append(next, c)
	}
	s.conversations = next
	out := models.CloneConversations(next)
	notify := s.notifyLocked()
	s.mu.Unlock()

	s.logger.Debug("conversations loaded", zap.Int("count", len(convs)))
	notify()
	return out, nil
}

func (s *Store) placeholderOnlyLocked() bool {
	for _, c := range s.conversations {
		if c.Origin != models.OriginPlaceholder {
			return false
		}
	}
	return true
}

// LoadConversation fetches the full history of id. Client-issued ids are
// answered locally. On failure the conversation's messages become empty,
// except for a provisional message still awaiting the backend.
func (s *Store) LoadConversation(ctx context.Context, id string) (models.Conversation, error) {
	if models.IsLocalID(id) {
		s.mu.Lock()
		defer s.mu.Unlock()
		idx := s.indexLocked(id)
		if idx < 0 {
			return models.Conversation{}, &models.NotFoundError{Message: "conversation " + id + " not found"}
		}
		conv := s.conversations[idx].Clone()
		conv.Messages = models.CloneMessages(s.threads[id])
		return conv, nil
	}

	s.mu.Lock()
	ver := s.threadVer[id]
	s.mu.Unlock()

	conv, err := s.repo.Get(ctx, id)

	s.mu.Lock()
	if err != nil {
		if s.threadVer[id] == ver {
			s.setThreadLocked(id, nil, false)
		}
		notify := s.notifyLocked()
		s.mu.Unlock()
		s.logger.Warn("failed to load conversation", zap.String("conversation_id", id), zap.Error(err))
		notify()
		return models.Conversation{}, err
	}

	s.setThreadLocked(id, conv.Messages, s.threadVer[id] != ver)
	if idx := s.indexLocked(id); idx >= 0 {
		s.conversations[idx].Title = conv.Title
		s.conversations[idx].UpdatedAt = conv.UpdatedAt
		s.conversations[idx].Metadata = conv.Metadata
	}
	out := conv.Clone()
	out.Origin = models.OriginRemote
	out.Messages = models.CloneMessages(s.threads[id])
	notify := s.notifyLocked()
	s.mu.Unlock()

	notify()
	return out, nil
}

// setThreadLocked replaces a thread with server messages. When keepLocal is
// set, messages added since the fetch started are preserved; the in-flight
// provisional message always is.
func (s *Store) setThreadLocked(id string, server []models.Message, keepLocal bool) {
	next := models.CloneMessages(server)
	seen := make(map[string]bool, len(next))
	for _, m := range next {
		seen[m.ID] = true
	}
	if keepLocal {
		for _, m := range s.threads[id] {
			if !seen[m.ID] {
				next = append(next, m)
				seen[m.ID] = true
			}
		}
	}
	if p, ok := s.inFlight[id]; ok && !seen[p.ID] {
		next = append(next, p)
	}
	s.threads[id] = next
	s.threadVer[id]++
}

// CreateConversation asks the backend for a new conversation, prepends it and
// makes it current. When the backend fails a local conversation is synthesized
// instead, so this never fails.
func (s *Store) CreateConversation(ctx context.Context, title string) models.Conversation {
	var conv models.Conversation
	created, err := s.repo.Create(ctx, title)
	if err != nil {
		s.logger.Warn("failed to create conversation, using local fallback", zap.Error(err))
		conv = Synthesize(title)
	} else {
		conv = created.Clone()
		conv.Origin = models.OriginRemote
		conv.Messages = []models.Message{}
	}

	s.mu.Lock()
	s.removeLocked(conv.ID)
	s.conversations = append([]models.Conversation{conv}, s.conversations...)
	s.threads[conv.ID] = []models.Message{}
	s.threadVer[conv.ID]++
	s.currentID = conv.ID
	notify := s.notifyLocked()
	s.mu.Unlock()

	s.logger.Info("conversation created", zap.String("conversation_id", conv.ID), zap.Stringer("origin", conv.Origin))
	notify()
	return conv.Clone()
}

// SetCurrent switches the current conversation without fetching it. An empty
// id selects the draft.
func (s *Store) SetCurrent(id string) {
	s.mu.Lock()
	s.currentID = id
	if _, ok := s.threads[id]; !ok {
		s.threads[id] = []models.Message{}
	}
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// SelectConversation makes id current and loads its history.
func (s *Store) SelectConversation(ctx context.Context, id string) (models.Conversation, error) {
	s.SetCurrent(id)
	return s.LoadConversation(ctx, id)
}

// DeleteConversation removes id from the backend and the list. Client-issued
// ids are removed without a backend call. On failure nothing changes.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if !models.IsLocalID(id) {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to delete conversation", zap.String("conversation_id", id), zap.Error(err))
			return err
		}
	}

	s.mu.Lock()
	s.removeLocked(id)
	if _, sending := s.inFlight[id]; !sending {
		delete(s.threads, id)
		delete(s.threadVer, id)
	}
	if s.currentID == id {
		s.currentID = draftKey
	}
	notify := s.notifyLocked()
	s.mu.Unlock()

	s.logger.Info("conversation deleted", zap.String("conversation_id", id))
	notify()
	return nil
}

// BeginExchange appends a provisional message to the current conversation and
// marks it in flight. It returns the key of the conversation the exchange
// belongs to.
func (s *Store) BeginExchange(provisional models.Message) (string, error) {
	s.mu.Lock()
	target := s.currentID
	if _, busy := s.inFlight[target]; busy {
		s.mu.Unlock()
		return "", models.ErrSendInFlight
	}
	s.threads[target] = append(models.CloneMessages(s.threads[target]), provisional)
	s.threadVer[target]++
	s.inFlight[target] = provisional
	notify := s.notifyLocked()
	s.mu.Unlock()

	notify()
	return target, nil
}

// CommitExchange replaces the provisional message with the confirmed pair.
// A target without a backend identity is re-keyed to the returned
// conversation id, which becomes current if the user is still on the target.
// It returns the conversation id the exchange ended up in.
func (s *Store) CommitExchange(target, provisionalID string, res *models.SendResult) string {
	s.mu.Lock()
	thread := spliceConfirmed(s.threads[target], provisionalID, res.Message, res.AssistantResponse)
	delete(s.inFlight, target)

	key := target
	if (target == draftKey || models.IsLocalID(target)) && res.ConversationID != "" {
		key = res.ConversationID
		s.rekeyLocked(target, key)
	}
	s.threads[key] = thread
	s.threadVer[key]++
	if idx := s.indexLocked(key); idx >= 0 {
		s.conversations[idx].UpdatedAt = res.AssistantResponse.Timestamp
	}
	notify := s.notifyLocked()
	s.mu.Unlock()

	notify()
	return key
}

// rekeyLocked moves a draft or local conversation under its backend id.
func (s *Store) rekeyLocked(from, to string) {
	if from == draftKey {
		s.threads[draftKey] = []models.Message{}
	} else {
		delete(s.threads, from)
	}
	s.threadVer[from]++

	now := models.Now()
	entry := models.Conversation{ID: to, Messages: []models.Message{}, CreatedAt: now, UpdatedAt: now, Origin: models.OriginRemote}
	if idx := s.indexLocked(from); idx >= 0 && from != draftKey {
		entry = s.conversations[idx]
		entry.ID = to
		entry.Origin = models.OriginRemote
		s.removeLocked(from)
	}
	s.removeLocked(to)
	s.conversations = append([]models.Conversation{entry}, s.conversations...)

	if s.currentID == from {
		s.currentID = to
	}
}

// RollbackExchange removes exactly the provisional message and releases the
// in-flight mark. A provisional message that is already gone is ignored.
func (s *Store) RollbackExchange(target, provisionalID string) {
	s.mu.Lock()
	thread := s.threads[target]
	next := make([]models.Message, 0, len(thread))
	for _, m := range thread {
		if m.ID != provisionalID {
			next = append(next, m)
		}
	}
	if _, ok := s.threads[target]; ok {
		s.threads[target] = next
		s.threadVer[target]++
	}
	delete(s.inFlight, target)
	notify := s.notifyLocked()
	s.mu.Unlock()

	notify()
}

// spliceConfirmed swaps the provisional message for the confirmed messages
// that are not already present. Without the provisional message they are
// appended.
func spliceConfirmed(thread []models.Message, provisionalID string, confirmed ...models.Message) []models.Message {
	present := make(map[string]bool, len(thread))
	for _, m := range thread {
		present[m.ID] = true
	}
	var missing []models.Message
	for _, m := range confirmed {
		if !present[m.ID] {
			missing = append(missing, m)
			present[m.ID] = true
		}
	}

	out := make([]models.Message, 0, len(thread)+len(missing))
	spliced := false
	for _, m := range thread {
		if m.ID == provisionalID {
			out = append(out, missing...)
			spliced = true
			continue
		}
		out = append(out, m)
	}
	if !spliced {
		out = append(out, missing...)
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string) {
	if idx := s.indexLocked(id); idx >= 0 {
		s.conversations = append(s.conversations[:idx:idx], s.conversations[idx+1:]...)
	}
}

// Conversations returns a copy of the ordered conversation list.
func (s *Store) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneConversations(s.conversations)
}

// CurrentID returns the current conversation id, or "" for the draft.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Current returns the current conversation with its loaded messages.
func (s *Store) Current() (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentID == draftKey {
		return models.Conversation{}, false
	}
	idx := s.indexLocked(s.currentID)
	if idx < 0 {
		return models.Conversation{}, false
	}
	conv := s.conversations[idx].Clone()
	conv.Messages = models.CloneMessages(s.threads[s.currentID])
	return conv, true
}

// Messages returns the current conversation's messages, or the draft's.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneMessages(s.threads[s.currentID])
}

// Thread returns the messages held for key.
func (s *Store) Thread(key string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneMessages(s.threads[key])
}

// Title returns the current conversation's title, or a generic label.
func (s *Store) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(s.currentID); idx >= 0 && s.conversations[idx].Title != "" {
		return s.conversations[idx].Title
	}
	return defaultTitle
}

// Sending reports whether the current conversation has an exchange in flight.
func (s *Store) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[s.currentID]
	return ok
}
