// model.go - Chat pane: message history viewport plus the input area.
// The pane renders whatever the conversation store holds; it never mutates it.

package chat

import (
	"llmchat/src/models"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const inputHeight = 3

// Model is the center chat pane.
type Model struct {
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	markdown bool

	title      string
	hasCurrent bool
	messages   []models.Message
	sending    bool
	focused    bool

	width  int
	height int
}

// New creates a chat pane. markdown enables glamour rendering of assistant replies.
func New(markdown bool) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (Enter to send, Alt+Enter for newline)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 8000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &Model{
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		markdown: markdown,
		title:    "Assistant",
		width:    80,
		height:   24,
	}
	m.SetSize(80, 24)
	return m
}

// Init starts the input cursor blink and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// SetSize resizes the pane to width x height cells.
func (m *Model) SetSize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < inputHeight+4 {
		height = inputHeight + 4
	}
	m.width, m.height = width, height

	m.input.SetWidth(width - 2)
	m.viewport.Width = width
	m.viewport.Height = height - inputHeight - 3

	if m.markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(width-4),
		)
		if err == nil {
			m.renderer = r
		}
	}
	m.refresh()
}

// SetConversation replaces what the pane shows. hasCurrent is false for the draft.
func (m *Model) SetConversation(title string, hasCurrent bool, msgs []models.Message, sending bool) {
	m.title = title
	m.hasCurrent = hasCurrent
	m.messages = msgs
	m.sending = sending
	m.refresh()
}

// Focus gives the input keyboard focus.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur removes keyboard focus from the input.
func (m *Model) Blur() {
	m.focused = false
	m.input.Blur()
}

// Focused reports whether the input has keyboard focus.
func (m *Model) Focused() bool { return m.focused }

// Value returns the text in the input.
func (m *Model) Value() string { return m.input.Value() }

// SetValue replaces the text in the input.
func (m *Model) SetValue(s string) { m.input.SetValue(s) }

// Reset clears the input.
func (m *Model) Reset() { m.input.Reset() }

// Sending reports whether the pane shows an exchange in flight.
func (m *Model) Sending() bool { return m.sending }

// Update routes input, scrolling and spinner ticks. Typing is ignored while a
// message is being sent.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.sending {
			m.refresh()
		}
		return cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		if !m.focused || m.sending {
			return nil
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// LastReply returns the most recent assistant message.
func LastReply(msgs []models.Message) (models.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			return msgs[i], true
		}
	}
	return models.Message{}, false
}
