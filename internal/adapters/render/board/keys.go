package board

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next   key.Binding
	Pause  key.Binding
	Faster key.Binding
	Slower key.Binding
	Reset  key.Binding
	Add    key.Binding
	Stop   key.Binding
	Remove key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next session")),
		Pause:  key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause/resume")),
		Faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start/reset")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add session")),
		Stop:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Pause, k.Faster, k.Slower, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Pause, k.Faster, k.Slower},
		{k.Reset, k.Add, k.Stop, k.Remove},
		{k.Help, k.Quit},
	}
}
