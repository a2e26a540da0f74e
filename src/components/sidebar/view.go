package sidebar

import (
	"strings"

	"llmchat/src/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// View renders the conversation list and the New Chat row.
func (s *Model) View() string {
	var b strings.Builder
	pad := "  "
	inner := s.Width - 4
	if inner < 4 {
		inner = 4
	}

	b.WriteString(pad + sectionStyle.Render("Conversations") + "\n")
	b.WriteString(pad + strings.Repeat("-", inner) + "\n")

	start, end := s.window()
	for i := start; i < end; i++ {
		b.WriteString(pad + s.renderRow(i, s.Conversations[i], inner) + "\n")
	}

	b.WriteString("\n")
	style := lipgloss.NewStyle()
	marker := "  "
	if s.Focused && s.Index == len(s.Conversations) {
		style = focusStyle
		marker = "> "
	}
	b.WriteString(pad + marker + style.Render("[+] New Chat"))

	return lipgloss.NewStyle().Width(s.Width).Height(s.Height).MaxHeight(s.Height).Render(b.String())
}

// chromeRows is the header, divider, spacer and New Chat lines.
const chromeRows = 4

// window returns the range of conversations that fits the pane, moving the
// scroll offset just enough to keep the cursor visible.
func (s *Model) window() (start, end int) {
	n := len(s.Conversations)
	visible := s.Height - chromeRows
	if visible < 1 {
		visible = 1
	}
	if n <= visible {
		s.offset = 0
		return 0, n
	}

	cursor := s.Index
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < s.offset {
		s.offset = cursor
	}
	if cursor >= s.offset+visible {
		s.offset = cursor - visible + 1
	}
	if s.offset > n-visible {
		s.offset = n - visible
	}
	if s.offset < 0 {
		s.offset = 0
	}
	return s.offset, s.offset + visible
}

func (s *Model) renderRow(i int, c models.Conversation, width int) string {
	style := lipgloss.NewStyle()
	marker := "  "
	if c.ID == s.CurrentID {
		style = style.Bold(true)
		marker = "• "
	}
	if s.Focused && i == s.Index {
		style = focusStyle
		marker = "> "
	}

	title := truncate(c.DisplayTitle(), width-4)
	row := marker + style.Render(title)
	if c.Origin != models.OriginRemote {
		row += offlineStyle.Render(" ○")
	}
	return row
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max < 2 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
