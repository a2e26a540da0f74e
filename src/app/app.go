// Package app is the root Bubble Tea model. It gates the chat layout on
// backend connectivity and turns key presses into store and exchange calls.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"llmchat/src/components/chat"
	"llmchat/src/components/modals/dialogs"
	"llmchat/src/components/sidebar"
	"llmchat/src/logging"
	"llmchat/src/models"
	"llmchat/src/services/connectivity"
	"llmchat/src/services/exchange"
	"llmchat/src/services/storage"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Options wires the application to its collaborators.
type Options struct {
	Monitor     *connectivity.Monitor
	Repository  storage.ConversationRepository
	Sender      exchange.Sender
	Logger      *zap.Logger
	BaseURL     string
	SendTimeout time.Duration
	Markdown    bool
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

const loadFailedStatus = "Could not load conversations: "

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Model is the root application model.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *zap.Logger

	monitor  *connectivity.Monitor
	store    *storage.Store
	protocol *exchange.Protocol

	connEvents  chan struct{}
	storeEvents chan struct{}
	unsubscribe []func()

	state   models.ConnectivityState
	mounted bool

	chat    *chat.Model
	sidebar *sidebar.Model
	modal   dialogs.Modal
	focus   focusArea
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	status  string

	width  int
	height int
}

// New builds the root model. The conversation store is created later, when
// the first probe reports the backend reachable.
func New(ctx context.Context, opts Options) *Model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := &Model{
		ctx:         ctx,
		opts:        opts,
		logger:      logging.OrNop(opts.Logger),
		monitor:     opts.Monitor,
		connEvents:  make(chan struct{}, 1),
		storeEvents: make(chan struct{}, 1),
		state:       opts.Monitor.State(),
		chat:        chat.New(opts.Markdown),
		sidebar:     sidebar.New(),
		keys:        defaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		width:       80,
		height:      24,
	}
	m.unsubscribe = append(m.unsubscribe, m.monitor.Subscribe(func(models.ConnectivityState) {
		signal(m.connEvents)
	}))
	m.resize(m.width, m.height)
	return m
}

// Close detaches the model from the monitor and the store.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// Store returns the conversation store, or nil before the chat UI mounts.
func (m *Model) Store() *storage.Store { return m.store }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return connectivityMsg{} },
		waitFor(m.connEvents, connectivityMsg{}),
		m.spinner.Tick,
		m.chat.Init(),
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case connectivityMsg:
		return m, tea.Batch(m.onConnectivity(), waitFor(m.connEvents, connectivityMsg{}))

	case retriedMsg:
		return m, m.onConnectivity()

	case storeChangedMsg:
		m.sync()
		return m, waitFor(m.storeEvents, storeChangedMsg{})

	case conversationsLoadedMsg:
		if msg.err != nil {
			m.status = loadFailedStatus + msg.err.Error()
		} else if strings.HasPrefix(m.status, loadFailedStatus) {
			m.status = ""
		}
		m.sync()
		return m, nil

	case conversationLoadedMsg:
		if msg.err != nil && m.store != nil && m.store.CurrentID() == msg.id {
			m.status = "Could not load conversation: " + msg.err.Error()
		}
		m.sync()
		return m, nil

	case conversationCreatedMsg:
		if msg.conv.Origin == models.OriginLocal {
			m.status = "Backend refused to create a conversation; using a local one"
		} else {
			m.status = ""
		}
		m.sync()
		return m, m.focusInput()

	case conversationDeletedMsg:
		if msg.err != nil {
			m.status = "Could not delete conversation: " + msg.err.Error()
		} else {
			m.status = ""
		}
		m.sync()
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.status = "Send failed: " + msg.err.Error()
		}
		m.sync()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied last reply to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, tea.Batch(cmd, m.chat.Update(msg))
	}

	return m, m.chat.Update(msg)
}

// onConnectivity reacts to the monitor's current state: the first
// Connected report mounts the chat UI, a reconnect refreshes the list.
func (m *Model) onConnectivity() tea.Cmd {
	prev := m.state
	m.state = m.monitor.State()
	if prev != m.state {
		m.logger.Debug("connectivity changed", zap.Stringer("from", prev), zap.Stringer("to", m.state))
	}
	if m.state != models.ConnectivityConnected {
		return nil
	}
	if !m.mounted {
		return m.mount()
	}
	if prev == models.ConnectivityDisconnected {
		return m.loadConversations()
	}
	return nil
}

// mount creates the store and the exchange protocol and starts the first load.
func (m *Model) mount() tea.Cmd {
	m.store = storage.NewStore(m.opts.Repository, storage.WithLogger(m.logger))
	m.protocol = exchange.NewProtocol(m.store, m.opts.Sender,
		exchange.WithLogger(m.logger),
		exchange.WithSendTimeout(m.opts.SendTimeout),
	)
	m.unsubscribe = append(m.unsubscribe, m.store.Subscribe(func() { signal(m.storeEvents) }))
	m.mounted = true
	m.logger.Info("chat view mounted")
	m.sync()

	return tea.Batch(
		m.loadConversations(),
		waitFor(m.storeEvents, storeChangedMsg{}),
		m.focusInput(),
	)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if modal := m.modal; modal != nil {
		closed, cmd := modal.Update(msg)
		if closed && m.modal == modal {
			m.modal = nil
		}
		return cmd
	}

	if m.state != models.ConnectivityConnected || !m.mounted {
		switch {
		case m.state == models.ConnectivityDisconnected && key.Matches(msg, m.keys.Retry):
			return m.retry()
		case msg.String() == "q":
			return tea.Quit
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Help) && (m.focus == focusSidebar || msg.String() == "f1"):
		m.modal = dialogs.NewHelpModal("Keys", m.keys)
		return nil
	case key.Matches(msg, m.keys.NewChat):
		return m.createConversation()
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.focusSidebar()
			return nil
		}
		return m.focusInput()
	case key.Matches(msg, m.keys.Copy):
		return m.copyLastReply()
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m.loadConversations()
	}

	if m.focus == focusSidebar {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m.focusInput()
		case key.Matches(msg, m.keys.Actions):
			if c, ok := m.sidebar.Selected(); ok {
				m.modal = m.actionsMenu(c)
			}
			return nil
		}
		_, nav := m.sidebar.Update(msg)
		if nav == nil {
			return nil
		}
		switch nav.Action {
		case sidebar.SelectAction:
			return m.selectConversation(nav.ID)
		case sidebar.NewChatAction:
			return m.createConversation()
		case sidebar.DeleteAction:
			m.modal = m.confirmDelete(nav.ID)
		}
		return nil
	}

	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}
	return m.chat.Update(msg)
}

func (m *Model) focusInput() tea.Cmd {
	m.focus = focusInput
	m.sidebar.Focused = false
	return m.chat.Focus()
}

func (m *Model) focusSidebar() {
	m.focus = focusSidebar
	m.sidebar.Focused = true
	m.chat.Blur()
}

// send starts an exchange. The provisional message is visible as soon as
// this returns; the backend round trip runs in the returned command.
func (m *Model) send() tea.Cmd {
	x, err := m.protocol.Begin(m.chat.Value())
	if err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			m.status = err.Error()
		}
		return nil
	}
	m.chat.Reset()
	m.status = ""
	m.sync()

	ctx := m.ctx
	return func() tea.Msg {
		id, err := x.Complete(ctx)
		return sentMsg{conversationID: id, err: err}
	}
}

// sync copies store state into the panes.
func (m *Model) sync() {
	if m.store == nil {
		return
	}
	current := m.store.CurrentID()
	m.sidebar.SetConversations(m.store.Conversations(), current)
	m.chat.SetConversation(m.store.Title(), current != "", m.store.Messages(), m.store.Sending())
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	sw := sidebarWidth(width)
	bodyHeight := height - 2
	m.sidebar.Width = sw
	m.sidebar.Height = bodyHeight
	m.chat.SetSize(width-sw-1, bodyHeight)
	m.help.Width = width
}

func sidebarWidth(total int) int {
	w := total / 4
	if w > 32 {
		w = 32
	}
	if w < 16 {
		w = 16
	}
	return w
}

// signal performs a non-blocking send; pending signals coalesce.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
