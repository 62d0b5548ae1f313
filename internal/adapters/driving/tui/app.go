package tui

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui/keymap"
	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui/messages"
	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui/styles"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// PageSize is the number of segments shown at once.
const PageSize = 20

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeFilter
)

var (
	placeholderTag = regexp.MustCompile(`<img data-tag="(\d+)"\s*/?>`)
	displayTag     = regexp.MustCompile(`\{(\d+)\}`)
)

// App is the segment editor. It pages through the open store, edits
// targets with inline tags shown as {n}, and confirms or locks segments.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	rows   []domain.SegmentRow
	stats  *domain.Statistics
	start  int
	cursor int
	filter string

	mode        mode
	editor      textinput.Model
	filterInput textinput.Model

	message string
	err     error
	width   int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a segment editor over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	editor := textinput.New()
	editor.Placeholder = "Translation..."
	editor.CharLimit = 0

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter source text..."
	filterInput.CharLimit = 256

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      styles.DefaultStyles(),
		keymap:      keymap.DefaultKeyMap(),
		editor:      editor,
		filterInput: filterInput,
		width:       100,
	}, nil
}

// WithContext sets the context used for store calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("swordfish"),
		a.loadRows(),
		a.loadStats(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.editor.Width = msg.Width - 8
		return a, nil

	case messages.RowsLoaded:
		a.err = msg.Err
		if msg.Err == nil {
			a.rows = msg.Rows
		}
		if a.cursor >= len(a.rows) {
			a.cursor = max(len(a.rows)-1, 0)
		}
		return a, nil

	case messages.StatsLoaded:
		if msg.Err == nil {
			a.stats = msg.Stats
		}
		return a, nil

	case messages.SegmentSaved:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.message = fmt.Sprintf("Saved %s (%s)", msg.Segment.SegmentKey, msg.Segment.State)
		a.mode = modeBrowse
		a.editor.Blur()
		return a, tea.Batch(a.loadRows(), a.loadStats())

	case messages.SegmentLocked:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.message = fmt.Sprintf("Unlocked %s", msg.Key)
		if msg.Locked {
			a.message = fmt.Sprintf("Locked %s", msg.Key)
		}
		return a, tea.Batch(a.loadRows(), a.loadStats())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.mode {
		case modeEdit:
			return a.updateEdit(msg)
		case modeFilter:
			return a.updateFilter(msg)
		default:
			return a.updateBrowse(msg)
		}
	}
	return a, nil
}

func (a *App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit
	case keymap.Matches(k, a.keymap.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case keymap.Matches(k, a.keymap.Down):
		if a.cursor < len(a.rows)-1 {
			a.cursor++
		}
	case keymap.Matches(k, a.keymap.NextPage):
		if len(a.rows) == PageSize {
			a.start += PageSize
			a.cursor = 0
			return a, a.loadRows()
		}
	case keymap.Matches(k, a.keymap.PrevPage):
		if a.start > 0 {
			a.start = max(a.start-PageSize, 0)
			a.cursor = 0
			return a, a.loadRows()
		}
	case keymap.Matches(k, a.keymap.Edit):
		row, ok := a.selected()
		if !ok || !row.Translate {
			return a, nil
		}
		a.mode = modeEdit
		a.message = ""
		a.editor.SetValue(DisplayText(row.Target))
		a.editor.CursorEnd()
		return a, a.editor.Focus()
	case keymap.Matches(k, a.keymap.Filter):
		a.mode = modeFilter
		a.filterInput.SetValue(a.filter)
		return a, a.filterInput.Focus()
	case keymap.Matches(k, a.keymap.Lock):
		if row, ok := a.selected(); ok {
			return a, a.lock(row.Key(), row.Translate)
		}
	case keymap.Matches(k, a.keymap.Refresh):
		return a, tea.Batch(a.loadRows(), a.loadStats())
	}
	return a, nil
}

func (a *App) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Cancel):
		a.mode = modeBrowse
		a.editor.Blur()
		return a, nil
	case keymap.Matches(k, a.keymap.Confirm):
		return a, a.save(true)
	case keymap.Matches(k, a.keymap.Save):
		return a, a.save(false)
	}
	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	return a, cmd
}

func (a *App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = modeBrowse
		a.filterInput.Blur()
		return a, nil
	case tea.KeyEnter:
		a.mode = modeBrowse
		a.filterInput.Blur()
		a.filter = a.filterInput.Value()
		a.start = 0
		a.cursor = 0
		return a, a.loadRows()
	}
	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	return a, cmd
}

func (a *App) selected() (domain.SegmentRow, bool) {
	if a.cursor < 0 || a.cursor >= len(a.rows) {
		return domain.SegmentRow{}, false
	}
	return a.rows[a.cursor], true
}

// ==================== Commands ====================

func (a *App) loadRows() tea.Cmd {
	ctx, svc := a.ctx, a.ports.Segments
	q := domain.SegmentQuery{Start: a.start, Count: PageSize, Filter: a.filter, Language: domain.FilterSource}
	return func() tea.Msg {
		rows, err := svc.Query(ctx, q)
		return messages.RowsLoaded{Rows: rows, Err: err}
	}
}

func (a *App) loadStats() tea.Cmd {
	ctx, svc := a.ctx, a.ports.Segments
	return func() tea.Msg {
		stats, err := svc.Statistics(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

func (a *App) save(confirm bool) tea.Cmd {
	row, ok := a.selected()
	if !ok {
		return nil
	}
	ctx, svc := a.ctx, a.ports.Segments
	req := driving.SaveRequest{
		Key:     row.Key(),
		Target:  MarkupText(a.editor.Value()),
		Confirm: confirm,
		Memory:  a.ports.Memory,
	}
	return func() tea.Msg {
		seg, err := svc.SaveSegment(ctx, req)
		return messages.SegmentSaved{Segment: seg, Err: err}
	}
}

func (a *App) lock(key domain.SegmentKey, locked bool) tea.Cmd {
	ctx, svc := a.ctx, a.ports.Segments
	return func() tea.Msg {
		err := svc.LockSegment(ctx, key, locked)
		return messages.SegmentLocked{Key: key, Locked: locked, Err: err}
	}
}

// ==================== View ====================

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("swordfish"))
	if a.stats != nil {
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  %d segments  %d translated  %d confirmed  %d locked",
			a.stats.Segments, a.stats.Translated, a.stats.Confirmed, a.stats.Locked)))
	}
	b.WriteString("\n")
	if a.mode == modeFilter {
		b.WriteString(a.styles.InputField.Render(a.filterInput.View()))
		b.WriteString("\n")
	} else if a.filter != "" {
		b.WriteString(a.styles.Muted.Render("filter: " + a.filter))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(a.rows) == 0 {
		b.WriteString(a.styles.Muted.Render("No segments."))
		b.WriteString("\n")
	}
	column := max((a.width-16)/2, 10)
	for i, row := range a.rows {
		line := fmt.Sprintf("%4d %s %s %s",
			row.Index,
			a.styles.State(row.State).Render(stateBadge(row.State)),
			pad(truncate(DisplayText(row.Source), column), column),
			truncate(DisplayText(row.Target), column))
		switch {
		case i == a.cursor:
			line = a.styles.Selected.Render(line)
		case !row.Translate:
			line = a.styles.Locked.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if a.mode == modeEdit {
		if row, ok := a.selected(); ok {
			b.WriteString("\n")
			b.WriteString(a.styles.Muted.Render(DisplayText(row.Source)))
			b.WriteString("\n")
		}
		b.WriteString(a.styles.InputField.Render(a.editor.View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.statusBar())
	return b.String()
}

func (a *App) statusBar() string {
	left := a.styles.Muted.Render(a.message)
	if a.err != nil {
		left = a.styles.Error.Render("Error: " + a.err.Error())
	}

	bindings := a.keymap.BrowseHelp()
	if a.mode == modeEdit {
		bindings = a.keymap.EditHelp()
	}
	right := a.styles.Muted.Render(helpLine(bindings))

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return a.styles.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

func helpLine(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return strings.Join(hints, " | ")
}

func stateBadge(s domain.State) string {
	switch s {
	case domain.StateFinal:
		return "F"
	case domain.StateTranslated:
		return "T"
	default:
		return "-"
	}
}

// DisplayText turns rendered markup into editable text: placeholders
// become {n} and entities are decoded.
func DisplayText(markup string) string {
	return html.UnescapeString(placeholderTag.ReplaceAllString(markup, "{$1}"))
}

// MarkupText reverses DisplayText.
func MarkupText(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range displayTag.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:m[0]]))
		b.WriteString(`<img data-tag="` + text[m[2]:m[3]] + `"/>`)
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
