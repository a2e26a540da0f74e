// modal.go - Common contract for dialogs drawn over the chat layout.

package dialogs

import tea "github.com/charmbracelet/bubbletea"

// Modal is a dialog that owns the keyboard until it closes.
type Modal interface {
	// Update handles a message and reports whether the modal closed.
	Update(msg tea.Msg) (closed bool, cmd tea.Cmd)
	// ViewRegion renders the modal centered in a width x height region.
	ViewRegion(width, height int) string
}

// Option is one selectable choice. OnSelect may be nil.
type Option struct {
	Label    string
	OnSelect func() tea.Cmd
}

func (o Option) run() tea.Cmd {
	if o.OnSelect == nil {
		return nil
	}
	return o.OnSelect()
}
