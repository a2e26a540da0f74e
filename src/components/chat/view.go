package chat

import (
	"fmt"
	"strings"

	"llmchat/src/models"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	systemLabel    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	inputBorder    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	inputFocused   = inputBorder.BorderForeground(lipgloss.Color("33"))
)

var roleCaser = cases.Title(language.English)

// View renders the title bar, the history and the input box.
func (m *Model) View() string {
	header := titleStyle.Width(m.width).Render(m.title)

	box := inputBorder
	if m.focused {
		box = inputFocused
	}
	input := box.Width(m.width - 2).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), input)
}

// refresh re-renders the history into the viewport and keeps it pinned to the
// newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *Model) renderHistory() string {
	if len(m.messages) == 0 && !m.sending {
		return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			emptyStyle.Render(EmptyText(m.title, m.hasCurrent)))
	}

	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if m.sending {
		b.WriteString(m.spinner.View() + " Thinking...\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg models.Message) string {
	label := assistantLabel
	switch msg.Role {
	case models.RoleUser:
		label = userLabel
	case models.RoleSystem:
		label = systemLabel
	}
	header := label.Render(RoleLabel(msg.Role))
	if clock := msg.Timestamp.Clock(); clock != "" {
		header += " " + timeStyle.Render(clock)
	}

	body := msg.Content
	if msg.Role == models.RoleAssistant && m.renderer != nil {
		if out, err := m.renderer.Render(msg.Content); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	} else {
		body = lipgloss.NewStyle().Width(m.width - 2).Render(body)
	}
	return fmt.Sprintf("%s\n%s\n", header, body)
}

// RoleLabel is the display name of a message author.
func RoleLabel(role models.Role) string {
	if role == models.RoleUser {
		return "You"
	}
	return roleCaser.String(string(role))
}

// EmptyText is shown in place of an empty history.
func EmptyText(title string, hasCurrent bool) string {
	if hasCurrent {
		return "Start chatting in " + title
	}
	return "How can I help?"
}
