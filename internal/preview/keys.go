package preview

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	ZoomIn, ZoomOut       key.Binding
	Reset                 key.Binding
	Next, Prev            key.Binding
	Sidebar               key.Binding
	Open                  key.Binding
	Outline               key.Binding
	Meta                  key.Binding
	Help                  key.Binding
	Quit                  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑↓←→", "pan")),
		Down:    key.NewBinding(key.WithKeys("down")),
		Left:    key.NewBinding(key.WithKeys("left")),
		Right:   key.NewBinding(key.WithKeys("right")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_")),
		Reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset")),
		Next:    key.NewBinding(key.WithKeys("n", "]"), key.WithHelp("n/p", "next/prev")),
		Prev:    key.NewBinding(key.WithKeys("p", "[")),
		Sidebar: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "figures")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Outline: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "outline")),
		Meta:    key.NewBinding(key.WithKeys("m", "a"), key.WithHelp("m", "metadata")),
		Help:    key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.ZoomIn, k.Next, k.Sidebar, k.Outline, k.Meta, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.ZoomIn, k.Reset},
		{k.Next, k.Sidebar, k.Open},
		{k.Outline, k.Meta, k.Help, k.Quit},
	}
}
