package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/logger"
)

// Ensure TaskRunner implements the interface.
var _ driving.TaskService = (*TaskRunner)(nil)

// errRunnerStopped is the ticket error of tasks submitted after Shutdown.
const errRunnerStopped = "task runner is shut down"

type task struct {
	seq    int
	status domain.TaskStatus
	done   chan struct{}
}

// TaskRunner runs bulk operations on a bounded pool and keeps a progress
// ticket per task. Finished tickets are evicted once they are older than
// the retention period. Tasks are never cancelled.
type TaskRunner struct {
	sem       *semaphore.Weighted
	retention time.Duration
	now       func() time.Time

	mu      sync.Mutex
	tasks   map[string]*task
	seq     int
	stopped bool
	wg      sync.WaitGroup
}

// NewTaskRunner creates a task runner.
func NewTaskRunner(settings domain.TaskSettings) *TaskRunner {
	workers := settings.Workers
	if workers <= 0 {
		workers = domain.DefaultTaskWorkers
	}
	retention := settings.Retention
	if retention <= 0 {
		retention = domain.DefaultTaskRetention
	}
	return &TaskRunner{
		sem:       semaphore.NewWeighted(int64(workers)),
		retention: retention,
		now:       time.Now,
		tasks:     make(map[string]*task),
	}
}

// Submit queues fn and returns its ticket id. The task starts as soon as
// a worker is free.
func (r *TaskRunner) Submit(name string, fn driving.TaskFunc) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()

	r.seq++
	t := &task{
		seq:    r.seq,
		status: domain.TaskStatus{ID: id, Name: name, State: domain.TaskPending},
		done:   make(chan struct{}),
	}
	r.tasks[id] = t

	if r.stopped {
		now := r.now()
		t.status.State = domain.TaskFailed
		t.status.Error = errRunnerStopped
		t.status.StartedAt = now
		t.status.EndedAt = now
		close(t.done)
		return id
	}

	r.wg.Add(1)
	go r.run(t, fn)
	return id
}

func (r *TaskRunner) run(t *task, fn driving.TaskFunc) {
	defer r.wg.Done()
	defer close(t.done)
	id, name := t.status.ID, t.status.Name

	ctx := context.Background()
	_ = r.sem.Acquire(ctx, 1)
	defer r.sem.Release(1)

	r.update(t, func(s *domain.TaskStatus) {
		s.State = domain.TaskRunning
		s.StartedAt = r.now()
	})
	logger.Debug("task %s (%s) started", id, name)

	err := r.call(ctx, t, fn)

	r.update(t, func(s *domain.TaskStatus) {
		s.EndedAt = r.now()
		if err != nil {
			s.State = domain.TaskFailed
			s.Error = err.Error()
			return
		}
		s.State = domain.TaskCompleted
		s.Progress = 100
	})
	if err != nil {
		logger.Error("task %s (%s) failed: %v", id, name, err)
		return
	}
	logger.Debug("task %s (%s) completed", id, name)
}

// call runs fn, turning a panic into a task failure.
func (r *TaskRunner) call(ctx context.Context, t *task, fn driving.TaskFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx, func(percent float64) {
		r.update(t, func(s *domain.TaskStatus) {
			s.Progress = min(max(percent, s.Progress), 100)
		})
	})
}

func (r *TaskRunner) update(t *task, fn func(*domain.TaskStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&t.status)
}

// Status returns a copy of the ticket of a task.
func (r *TaskRunner) Status(id string) (*domain.TaskStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", id, domain.ErrNotFound)
	}
	status := t.status
	return &status, nil
}

// Wait blocks until the task reaches a terminal state or ctx is done.
func (r *TaskRunner) Wait(ctx context.Context, id string) (*domain.TaskStatus, error) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("task %q: %w", id, domain.ErrNotFound)
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	status := t.status
	return &status, nil
}

// List returns the retained tickets in submission order.
func (r *TaskRunner) List() []domain.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()

	tasks := make([]*task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].seq < tasks[j].seq })

	out := make([]domain.TaskStatus, len(tasks))
	for i, t := range tasks {
		out[i] = t.status
	}
	return out
}

// Shutdown refuses new tasks and waits for queued and running ones.
func (r *TaskRunner) Shutdown() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *TaskRunner) evictLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, t := range r.tasks {
		if t.status.State.IsTerminal() && t.status.EndedAt.Before(cutoff) {
			delete(r.tasks, id)
		}
	}
}
