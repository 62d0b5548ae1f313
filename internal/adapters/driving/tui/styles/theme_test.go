package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func TestDefaultTheme_StateColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Initial, theme.Translated, theme.Final, theme.Error} {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate colour: %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.NotNil(t, s.Theme())
}

func TestStyles_State(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	assert.Equal(t, lipgloss.TerminalColor(theme.Initial), s.State(domain.StateInitial).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Translated), s.State(domain.StateTranslated).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Final), s.State(domain.StateFinal).GetForeground())
	assert.Equal(t, lipgloss.TerminalColor(theme.Muted), s.State("reviewed").GetForeground())
}
