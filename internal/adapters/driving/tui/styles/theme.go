// Package styles provides the colour palette and styles of the segment editor.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// Theme defines the colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color

	// Initial, Translated and Final colour segment states.
	Initial    lipgloss.Color
	Translated lipgloss.Color
	Final      lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#06B6D4"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
		Initial:    lipgloss.Color("#FAB387"),
		Translated: lipgloss.Color("#F9E2AF"),
		Final:      lipgloss.Color("#A6E3A1"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Locked     lipgloss.Style
	Error      lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	states map[domain.State]lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme:    theme,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Normal:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(theme.Foreground).Background(theme.Primary),
		Locked:   lipgloss.NewStyle().Foreground(theme.Muted).Strikethrough(true),
		Error:    lipgloss.NewStyle().Foreground(theme.Error),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),
		states: map[domain.State]lipgloss.Style{
			domain.StateInitial:    lipgloss.NewStyle().Foreground(theme.Initial),
			domain.StateTranslated: lipgloss.NewStyle().Foreground(theme.Translated),
			domain.StateFinal:      lipgloss.NewStyle().Foreground(theme.Final),
		},
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// State returns the style of a segment state. Unknown states render muted.
func (s *Styles) State(state domain.State) lipgloss.Style {
	if st, ok := s.states[state]; ok {
		return st
	}
	return s.Muted
}
