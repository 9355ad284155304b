package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the feed key bindings.
type KeyMap struct {
	Next        key.Binding
	Prev        key.Binding
	Top         key.Binding
	Like        key.Binding
	Save        key.Binding
	Pause       key.Binding
	Mute        key.Binding
	Personalize key.Binding
	Category    key.Binding
	Comments    key.Binding
	Retry       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default feed bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Personalize: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "for you/latest"),
		),
		Category: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "category"),
		),
		Comments: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comments"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Like, k.Comments, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Top},
		{k.Like, k.Save, k.Comments},
		{k.Pause, k.Mute},
		{k.Personalize, k.Category, k.Retry},
		{k.Help, k.Quit},
	}
}

// ThreadKeyMap defines the bindings active while the comment panel is open.
type ThreadKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Replies key.Binding
	Like    key.Binding
	Write   key.Binding
	Reply   key.Binding
	Retry   key.Binding
	Send    key.Binding
	Close   key.Binding
}

// DefaultThreadKeyMap returns the default comment panel bindings.
func DefaultThreadKeyMap() ThreadKeyMap {
	return ThreadKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Replies: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "replies"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like"),
		),
		Write: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "comment"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reply"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc", "close"),
		),
	}
}

func (k ThreadKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Replies, k.Like, k.Write, k.Reply, k.Close}
}

func (k ThreadKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.Replies},
		{k.Like, k.Write, k.Reply},
		{k.Retry, k.Close},
	}
}
