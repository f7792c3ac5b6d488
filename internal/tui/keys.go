package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Raise a sample toast of each kind
	Success key.Binding
	Error   key.Binding
	Warning key.Binding
	Info    key.Binding

	// Actions
	DismissNewest key.Binding
	DismissOldest key.Binding
	CloseAll      key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Success, k.Error, k.DismissNewest, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Success, k.Error, k.Warning, k.Info},
		{k.DismissNewest, k.DismissOldest, k.CloseAll},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Success: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "success toast"),
		),
		Error: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "error toast"),
		),
		Warning: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "warning toast"),
		),
		Info: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "info toast"),
		),
		DismissNewest: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss newest"),
		),
		DismissOldest: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss oldest"),
		),
		CloseAll: key.NewBinding(
			key.WithKeys("X", "c"),
			key.WithHelp("X/c", "close all"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
