package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		key     string
	}{
		{"quit", km.Quit, "ctrl+c"},
		{"up", km.Up, "k"},
		{"down", km.Down, "j"},
		{"edit", km.Edit, "enter"},
		{"confirm", km.Confirm, "ctrl+s"},
		{"cancel", km.Cancel, "esc"},
		{"filter", km.Filter, "/"},
		{"lock", km.Lock, "x"},
		{"next page", km.NextPage, "pgdown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Matches(tt.key, tt.binding))
		})
	}
}

func TestMatches_Unbound(t *testing.T) {
	km := DefaultKeyMap()
	assert.False(t, Matches("z", km.Quit))
	assert.False(t, Matches("", km.Edit))
}

func TestKeyMap_HelpHasDescriptions(t *testing.T) {
	km := DefaultKeyMap()
	for _, b := range append(km.BrowseHelp(), km.EditHelp()...) {
		assert.NotEmpty(t, b.Help().Key)
		assert.NotEmpty(t, b.Help().Desc)
	}
}
