package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui/messages"
	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui/styles"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// pollInterval is how often the progress view reads the ticket.
const pollInterval = 100 * time.Millisecond

// Progress follows one background task until it finishes. Interrupting
// it stops the view only; the task keeps running.
type Progress struct {
	tasks  driving.TaskService
	id     string
	bar    progress.Model
	styles *styles.Styles

	status   *domain.TaskStatus
	err      error
	detached bool
}

// Ensure Progress implements tea.Model.
var _ tea.Model = (*Progress)(nil)

// NewProgress creates a progress view for task id.
func NewProgress(tasks driving.TaskService, id string) (*Progress, error) {
	if tasks == nil {
		return nil, ErrMissingTaskService
	}
	return &Progress{
		tasks:  tasks,
		id:     id,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		styles: styles.DefaultStyles(),
	}, nil
}

// Init implements tea.Model.
func (p *Progress) Init() tea.Cmd {
	return p.poll()
}

// Update implements tea.Model.
func (p *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			p.detached = true
			return p, tea.Quit
		}

	case messages.TaskTick:
		return p, p.poll()

	case messages.TaskUpdated:
		if msg.Err != nil {
			p.err = msg.Err
			return p, tea.Quit
		}
		p.status = msg.Status
		if msg.Status.State.IsTerminal() {
			return p, tea.Quit
		}
		id := p.id
		return p, tea.Tick(pollInterval, func(time.Time) tea.Msg {
			return messages.TaskTick{ID: id}
		})
	}
	return p, nil
}

// View implements tea.Model.
func (p *Progress) View() string {
	if p.err != nil {
		return p.styles.Error.Render("Error: "+p.err.Error()) + "\n"
	}
	if p.status == nil {
		return p.styles.Muted.Render("Waiting for task...") + "\n"
	}
	line := fmt.Sprintf("%s %s %s", p.status.Name, p.bar.ViewAs(p.status.Progress/100), p.status.State)
	if p.status.State == domain.TaskFailed {
		line += "\n" + p.styles.Error.Render(p.status.Error)
	}
	if p.detached {
		line += "\n" + p.styles.Muted.Render("Detached; the task keeps running.")
	}
	return line + "\n"
}

// Status returns the last ticket seen, nil before the first poll.
func (p *Progress) Status() *domain.TaskStatus {
	return p.status
}

// Err returns the polling error, if any.
func (p *Progress) Err() error {
	return p.err
}

func (p *Progress) poll() tea.Cmd {
	tasks, id := p.tasks, p.id
	return func() tea.Msg {
		status, err := tasks.Status(id)
		return messages.TaskUpdated{Status: status, Err: err}
	}
}
