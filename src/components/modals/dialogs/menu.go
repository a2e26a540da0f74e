// menu.go - MenuModal for a vertical list of actions.

package dialogs

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MenuModal shows a titled list of options.
type MenuModal struct {
	Title    string
	Options  []Option
	Selected int
}

// NewMenuModal creates a MenuModal.
func NewMenuModal(title string, options ...Option) *MenuModal {
	return &MenuModal{Title: title, Options: options}
}

// Update handles up/down to navigate, enter to select, esc to close.
func (m *MenuModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Options) == 0 {
		if ok && km.String() == "esc" {
			return true, nil
		}
		return false, nil
	}
	switch km.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		} else {
			m.Selected = len(m.Options) - 1
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		} else {
			m.Selected = 0
		}
	case "enter":
		return true, m.Options[m.Selected].run()
	case "esc", "q":
		return true, nil
	}
	return false, nil
}

// ViewRegion renders the menu centered in the given region, title above and
// the selected option highlighted.
func (m *MenuModal) ViewRegion(regionWidth, regionHeight int) string {
	title := lipgloss.NewStyle().Bold(true).Render(m.Title)
	var opts string
	for i, opt := range m.Options {
		style := lipgloss.NewStyle().Padding(0, 2)
		if i == m.Selected {
			style = style.Bold(true).Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
		}
		opts += style.Render(opt.Label) + "\n"
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(1, 2).
		Render(title + "\n\n" + opts)
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, box)
}
