// confirmation.go - ConfirmationModal for yes/no style questions with 1-3 options.
// Left/right to move, enter to select, esc to cancel.

package dialogs

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmationModal asks a question with 1-3 horizontally laid out options.
type ConfirmationModal struct {
	Message  string
	Options  []Option
	Selected int
}

// NewConfirmationModal creates a ConfirmationModal. It panics unless 1-3 options are given.
func NewConfirmationModal(message string, options ...Option) *ConfirmationModal {
	if len(options) < 1 || len(options) > 3 {
		panic("ConfirmationModal must have 1-3 options")
	}
	return &ConfirmationModal{Message: message, Options: options}
}

func (m *ConfirmationModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch km.String() {
	case "left", "h", "shift+tab":
		m.Selected = (m.Selected + len(m.Options) - 1) % len(m.Options)
	case "right", "l", "tab":
		m.Selected = (m.Selected + 1) % len(m.Options)
	case "enter":
		return true, m.Options[m.Selected].run()
	case "esc", "q":
		return true, nil
	}
	return false, nil
}

func (m *ConfirmationModal) ViewRegion(regionWidth, regionHeight int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(1, 4).
		Align(lipgloss.Center)

	msg := lipgloss.NewStyle().Bold(true).Render(m.Message)
	var opts string
	for i, opt := range m.Options {
		style := lipgloss.NewStyle().Padding(0, 2)
		if i == m.Selected {
			style = style.Bold(true).Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
		}
		opts += style.Render(opt.Label)
	}
	box := boxStyle.Render(msg + "\n\n" + opts)
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, box)
}
