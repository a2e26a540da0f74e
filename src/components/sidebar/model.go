// components/sidebar/model.go - Conversation list shown next to the chat pane.
// Entries mirror the conversation store; the last row is always "New Chat".

package sidebar

import (
	"llmchat/src/models"

	tea "github.com/charmbracelet/bubbletea"
)

// Action is what the user asked for from the sidebar.
type Action int

const (
	SelectAction Action = iota
	NewChatAction
	DeleteAction
)

// NavigationMsg is returned by Update when a key press needs the app to act.
type NavigationMsg struct {
	Action Action
	ID     string
}

// Model holds the sidebar entries and the cursor.
type Model struct {
	Conversations []models.Conversation
	CurrentID     string
	Index         int  // cursor; len(Conversations) is the New Chat row
	Focused       bool // keyboard focus
	Width         int
	Height        int

	offset int // first conversation row shown
}

// New creates an empty sidebar.
func New() *Model {
	return &Model{Width: 28, Height: 20}
}

// SetConversations replaces the entries, keeping the cursor on the same
// conversation when it still exists.
func (s *Model) SetConversations(convs []models.Conversation, currentID string) {
	var cursorID string
	if s.Index < len(s.Conversations) {
		cursorID = s.Conversations[s.Index].ID
	}
	s.Conversations = convs
	s.CurrentID = currentID

	s.Index = 0
	target := cursorID
	if target == "" || !s.Focused {
		target = currentID
	}
	for i, c := range convs {
		if c.ID == target {
			s.Index = i
			break
		}
	}
}

// Selected returns the conversation under the cursor, or false on the New Chat row.
func (s *Model) Selected() (models.Conversation, bool) {
	if s.Index >= 0 && s.Index < len(s.Conversations) {
		return s.Conversations[s.Index], true
	}
	return models.Conversation{}, false
}

// Update handles navigation with wrap-around.
func (s *Model) Update(msg tea.Msg) (*Model, *NavigationMsg) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !s.Focused {
		return s, nil
	}
	rows := len(s.Conversations) + 1
	switch km.String() {
	case "up", "k":
		if s.Index == 0 {
			s.Index = rows - 1
		} else {
			s.Index--
		}
	case "down", "j":
		if s.Index >= rows-1 {
			s.Index = 0
		} else {
			s.Index++
		}
	case "enter":
		if c, ok := s.Selected(); ok {
			return s, &NavigationMsg{Action: SelectAction, ID: c.ID}
		}
		return s, &NavigationMsg{Action: NewChatAction}
	case "d", "delete":
		if c, ok := s.Selected(); ok {
			return s, &NavigationMsg{Action: DeleteAction, ID: c.ID}
		}
	}
	return s, nil
}
