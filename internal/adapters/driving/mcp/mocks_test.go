package mcp

import (
	"context"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// mockSegmentService implements the parts of driving.SegmentService the
// server calls. Other methods panic through the nil embedded interface.
type mockSegmentService struct {
	driving.SegmentService

	rows    []domain.SegmentRow
	segment *domain.Segment
	matches []domain.Match
	notes   []domain.Note
	stats   *domain.Statistics
	err     error

	lastQuery    domain.SegmentQuery
	lastSave     driving.SaveRequest
	lastMemory   string
	lastGlossary string
	lastSim      int
}

func (m *mockSegmentService) Query(_ context.Context, q domain.SegmentQuery) ([]domain.SegmentRow, error) {
	m.lastQuery = q
	return m.rows, m.err
}

func (m *mockSegmentService) Segment(_ context.Context, _ domain.SegmentKey) (*domain.Segment, error) {
	return m.segment, m.err
}

func (m *mockSegmentService) SaveSegment(_ context.Context, req driving.SaveRequest) (*domain.Segment, error) {
	m.lastSave = req
	return m.segment, m.err
}

func (m *mockSegmentService) Matches(_ context.Context, _ domain.SegmentKey) ([]domain.Match, error) {
	return m.matches, m.err
}

func (m *mockSegmentService) Notes(_ context.Context, _ domain.SegmentKey) ([]domain.Note, error) {
	return m.notes, m.err
}

func (m *mockSegmentService) Statistics(_ context.Context) (*domain.Statistics, error) {
	return m.stats, m.err
}

func (m *mockSegmentService) TMTranslateAll(_ context.Context, memory string, similarity int, progress driving.ProgressFunc) error {
	m.lastMemory = memory
	m.lastSim = similarity
	progress(100)
	return m.err
}

func (m *mockSegmentService) AssembleMatchesAll(_ context.Context, memory, glossary string, progress driving.ProgressFunc) error {
	m.lastMemory = memory
	m.lastGlossary = glossary
	progress(100)
	return m.err
}

// mockTaskService runs tasks synchronously on Submit.
type mockTaskService struct {
	tickets []domain.TaskStatus
}

func (m *mockTaskService) Submit(name string, fn driving.TaskFunc) string {
	status := domain.TaskStatus{ID: "task-" + name, Name: name, State: domain.TaskRunning}
	err := fn(context.Background(), func(p float64) { status.Progress = p })
	status.State = domain.TaskCompleted
	if err != nil {
		status.State = domain.TaskFailed
		status.Error = err.Error()
	}
	m.tickets = append(m.tickets, status)
	return status.ID
}

func (m *mockTaskService) Status(id string) (*domain.TaskStatus, error) {
	for i := range m.tickets {
		if m.tickets[i].ID == id {
			status := m.tickets[i]
			return &status, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTaskService) Wait(_ context.Context, id string) (*domain.TaskStatus, error) {
	return m.Status(id)
}

func (m *mockTaskService) List() []domain.TaskStatus {
	return m.tickets
}

func (m *mockTaskService) Shutdown() {}
