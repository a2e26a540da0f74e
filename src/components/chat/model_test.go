package chat

import (
	"testing"

	"llmchat/src/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "You", RoleLabel(models.RoleUser))
	assert.Equal(t, "Assistant", RoleLabel(models.RoleAssistant))
	assert.Equal(t, "System", RoleLabel(models.RoleSystem))
}

func TestEmptyText(t *testing.T) {
	assert.Equal(t, "Start chatting in Chat 2", EmptyText("Chat 2", true))
	assert.Equal(t, "How can I help?", EmptyText("Assistant", false))
}

func TestLastReply(t *testing.T) {
	msgs := []models.Message{
		{ID: "1", Role: models.RoleUser, Content: "q1"},
		{ID: "2", Role: models.RoleAssistant, Content: "a1"},
		{ID: "3", Role: models.RoleUser, Content: "q2"},
	}
	got, ok := LastReply(msgs)
	assert.True(t, ok)
	assert.Equal(t, "2", got.ID)

	_, ok = LastReply(msgs[:1])
	assert.False(t, ok)
}

func TestViewShowsHistory(t *testing.T) {
	m := New(false)
	m.SetSize(100, 30)
	m.SetConversation("Ideas", true, []models.Message{
		{ID: "1", Role: models.RoleUser, Content: "Hello there"},
		{ID: "2", Role: models.RoleAssistant, Content: "General Kenobi"},
	}, false)

	view := m.View()
	assert.Contains(t, view, "Ideas")
	assert.Contains(t, view, "Hello there")
	assert.Contains(t, view, "General Kenobi")
	assert.NotContains(t, view, "Thinking...")
}

func TestViewEmptyAndSending(t *testing.T) {
	m := New(false)
	m.SetSize(100, 30)
	m.SetConversation("Assistant", false, nil, false)
	assert.Contains(t, m.View(), "How can I help?")

	m.SetConversation("Assistant", false, []models.Message{{ID: "p", Role: models.RoleUser, Content: "Hi"}}, true)
	assert.Contains(t, m.View(), "Thinking...")
	assert.True(t, m.Sending())
}

func TestTypingBlockedWhileSending(t *testing.T) {
	m := New(false)
	m.Focus()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Equal(t, "a", m.Value())

	m.SetConversation("Assistant", false, nil, true)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	assert.Equal(t, "a", m.Value())

	m.Blur()
	m.SetConversation("Assistant", false, nil, false)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Equal(t, "a", m.Value())
	assert.False(t, m.Focused())

	m.Reset()
	assert.Empty(t, m.Value())
}
