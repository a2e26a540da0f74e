package app

import (
	"llmchat/src/components/chat"
	"llmchat/src/components/modals/dialogs"
	"llmchat/src/models"
	"llmchat/src/services/storage"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type (
	// connectivityMsg is delivered whenever the monitor signals a transition.
	connectivityMsg struct{}
	// retriedMsg follows a manual probe.
	retriedMsg struct{}
	// storeChangedMsg is delivered after background store mutations.
	storeChangedMsg struct{}

	conversationsLoadedMsg struct{ err error }
	conversationLoadedMsg  struct {
		id  string
		err error
	}
	conversationCreatedMsg struct{ conv models.Conversation }
	conversationDeletedMsg struct {
		id  string
		err error
	}
	sentMsg struct {
		conversationID string
		err            error
	}
	copiedMsg struct{ err error }
)

// waitFor blocks on ch and then delivers msg. It yields nothing once ch is closed.
func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) retry() tea.Cmd {
	ctx := m.ctx
	mon := m.monitor
	return func() tea.Msg {
		mon.Retry(ctx)
		return retriedMsg{}
	}
}

func (m *Model) loadConversations() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		_, err := store.LoadConversations(ctx)
		return conversationsLoadedMsg{err: err}
	}
}

// selectConversation switches immediately and loads the history in the background.
func (m *Model) selectConversation(id string) tea.Cmd {
	m.store.SetCurrent(id)
	m.status = ""
	m.sync()
	focus := m.focusInput()

	ctx, store := m.ctx, m.store
	return tea.Batch(focus, func() tea.Msg {
		_, err := store.LoadConversation(ctx, id)
		return conversationLoadedMsg{id: id, err: err}
	})
}

func (m *Model) createConversation() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return conversationCreatedMsg{conv: store.CreateConversation(ctx, storage.DefaultTitle)}
	}
}

func (m *Model) deleteConversation(id string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return conversationDeletedMsg{id: id, err: store.DeleteConversation(ctx, id)}
	}
}

func (m *Model) confirmDelete(id string) dialogs.Modal {
	title := id
	for _, c := range m.store.Conversations() {
		if c.ID == id {
			title = c.DisplayTitle()
			break
		}
	}
	return dialogs.NewConfirmationModal("Delete \""+title+"\"?",
		dialogs.Option{Label: "Delete", OnSelect: func() tea.Cmd { return m.deleteConversation(id) }},
		dialogs.Option{Label: "Cancel"},
	)
}

func (m *Model) actionsMenu(c models.Conversation) dialogs.Modal {
	id := c.ID
	return dialogs.NewMenuModal(c.DisplayTitle(),
		dialogs.Option{Label: "Open", OnSelect: func() tea.Cmd { return m.selectConversation(id) }},
		dialogs.Option{Label: "Delete", OnSelect: func() tea.Cmd {
			m.modal = m.confirmDelete(id)
			return nil
		}},
		dialogs.Option{Label: "Copy ID", OnSelect: func() tea.Cmd { return m.copyText(id) }},
		dialogs.Option{Label: "Cancel"},
	)
}

func (m *Model) copyLastReply() tea.Cmd {
	reply, ok := chat.LastReply(m.store.Messages())
	if !ok {
		m.status = "Nothing to copy yet"
		return nil
	}
	return m.copyText(reply.Content)
}

func (m *Model) copyText(s string) tea.Cmd {
	write, logger := m.opts.Clipboard, m.logger
	return func() tea.Msg {
		err := write(s)
		if err != nil {
			logger.Warn("clipboard write failed", zap.Error(err))
		}
		return copiedMsg{err: err}
	}
}
