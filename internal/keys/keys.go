package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Sections
	Users     key.Binding
	Resources key.Binding
	Hospital  key.Binding
	Broadcast key.Binding
	Journal   key.Binding

	// Notification dropdown
	Notifications key.Binding
	MarkAllRead   key.Binding

	// NotificationsGlobal toggles the dropdown from views that own the
	// keyboard, such as forms.
	NotificationsGlobal key.Binding

	// List actions
	Edit         key.Binding
	Delete       key.Binding
	Toggle       key.Binding
	Filter       key.Binding
	FilterStatus key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open / mark read"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Users: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "users"),
		),
		Resources: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "resources"),
		),
		Hospital: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "hospital"),
		),
		Broadcast: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "broadcast"),
		),
		Journal: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "history"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "notifications"),
		),
		NotificationsGlobal: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "notifications (anywhere)"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "mark all read"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "activate/deactivate"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		FilterStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Notifications,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Command, k.Help, k.Refresh},
		{k.Users, k.Resources, k.Hospital, k.Broadcast, k.Journal},
		{k.Notifications, k.NotificationsGlobal, k.MarkAllRead, k.Delete},
		{k.Edit, k.Toggle, k.Filter, k.FilterStatus},
	}
}
