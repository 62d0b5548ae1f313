// Package keymap defines keybindings for the segment editor.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings of the editor.
type KeyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	// Edit opens the target of the selected segment for editing.
	Edit key.Binding

	// Save stores the edited target; Confirm stores and confirms it.
	Save    key.Binding
	Confirm key.Binding

	// Cancel leaves edit or filter mode.
	Cancel key.Binding

	// Filter edits the source text filter.
	Filter key.Binding

	// Lock toggles the lock of the selected segment.
	Lock key.Binding

	// Refresh reloads the page and statistics.
	Refresh key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextPage: key.NewBinding(key.WithKeys("pgdown", "right", "l"), key.WithHelp("→", "next page")),
		PrevPage: key.NewBinding(key.WithKeys("pgup", "left", "h"), key.WithHelp("←", "prev page")),
		Edit:     key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Save:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Confirm:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "confirm")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Lock:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "lock")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

// BrowseHelp returns the bindings shown while browsing segments.
func (k *KeyMap) BrowseHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Filter, k.Lock, k.NextPage, k.Quit}
}

// EditHelp returns the bindings shown while editing a target.
func (k *KeyMap) EditHelp() []key.Binding {
	return []key.Binding{k.Save, k.Confirm, k.Cancel}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
