package app

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding the chat screen understands.
type keyMap struct {
	Send    key.Binding
	Newline key.Binding
	NewChat key.Binding
	Focus   key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Delete  key.Binding
	Actions key.Binding
	Copy    key.Binding
	Refresh key.Binding
	Help    key.Binding
	Retry   key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline: key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "newline")),
		NewChat: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to input")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Actions: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "actions")),
		Copy:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy last reply")),
		Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh list")),
		Help:    key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("f1/?", "help")),
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.Focus, k.Copy, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.NewChat, k.Copy},
		{k.Focus, k.Back, k.Up, k.Down},
		{k.Open, k.Delete, k.Actions, k.Refresh},
		{k.Help, k.Quit},
	}
}
