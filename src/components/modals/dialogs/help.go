// help.go - HelpModal for displaying key bindings.

package dialogs

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModal shows the full key map. Any key closes it.
type HelpModal struct {
	Title string
	Keys  help.KeyMap
	help  help.Model
}

// NewHelpModal creates a HelpModal for keys.
func NewHelpModal(title string, keys help.KeyMap) *HelpModal {
	h := help.New()
	h.ShowAll = true
	return &HelpModal{Title: title, Keys: keys, help: h}
}

func (m *HelpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	_, ok := msg.(tea.KeyMsg)
	return ok, nil
}

// ViewRegion renders the help centered in the given region.
func (m *HelpModal) ViewRegion(regionWidth, regionHeight int) string {
	m.help.Width = regionWidth - 8
	title := lipgloss.NewStyle().Bold(true).Render(m.Title)
	content := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("245")).
		Padding(1, 2).
		Render(title + "\n\n" + m.help.View(m.Keys) + "\n\n" + "press any key to close")
	return lipgloss.Place(regionWidth, regionHeight, lipgloss.Center, lipgloss.Center, content)
}
