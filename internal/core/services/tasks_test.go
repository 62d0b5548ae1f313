package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// fakeClock is a settable clock safe for use from task goroutines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func waitTask(t *testing.T, r *TaskRunner, id string) *domain.TaskStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := r.Wait(ctx, id)
	require.NoError(t, err)
	return status
}

func TestTaskRunner_Completes(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})
	defer r.Shutdown()

	id := r.Submit("translate", func(_ context.Context, progress driving.ProgressFunc) error {
		progress(40)
		return nil
	})
	status := waitTask(t, r, id)

	assert.Equal(t, id, status.ID)
	assert.Equal(t, "translate", status.Name)
	assert.Equal(t, domain.TaskCompleted, status.State)
	assert.Equal(t, float64(100), status.Progress)
	assert.Empty(t, status.Error)
	assert.False(t, status.StartedAt.IsZero())
	assert.False(t, status.EndedAt.Before(status.StartedAt))
}

func TestTaskRunner_Fails(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})
	defer r.Shutdown()

	id := r.Submit("assemble", func(_ context.Context, progress driving.ProgressFunc) error {
		progress(30)
		return errors.New("memory unavailable")
	})
	status := waitTask(t, r, id)

	assert.Equal(t, domain.TaskFailed, status.State)
	assert.Equal(t, "memory unavailable", status.Error)
	assert.Equal(t, float64(30), status.Progress)
}

func TestTaskRunner_PanicBecomesFailure(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})
	defer r.Shutdown()

	id := r.Submit("panics", func(context.Context, driving.ProgressFunc) error {
		panic("boom")
	})
	status := waitTask(t, r, id)

	assert.Equal(t, domain.TaskFailed, status.State)
	assert.Contains(t, status.Error, "boom")
}

func TestTaskRunner_ProgressIsMonotonicAndClamped(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})
	defer r.Shutdown()

	seen := make(chan float64, 4)
	release := make(chan struct{})
	id := r.Submit("progress", func(_ context.Context, progress driving.ProgressFunc) error {
		for _, p := range []float64{50, 20, 250} {
			progress(p)
			status, err := r.Status(r.List()[0].ID)
			if err != nil {
				return err
			}
			seen <- status.Progress
		}
		<-release
		return errors.New("stop")
	})

	assert.Equal(t, float64(50), <-seen)
	assert.Equal(t, float64(50), <-seen)
	assert.Equal(t, float64(100), <-seen)
	close(release)

	status := waitTask(t, r, id)
	assert.Equal(t, float64(100), status.Progress)
}

func TestTaskRunner_StatusUnknown(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})

	_, err := r.Status("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRunner_WaitHonoursContext(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})
	release := make(chan struct{})
	defer func() {
		close(release)
		r.Shutdown()
	}()

	id := r.Submit("blocked", func(context.Context, driving.ProgressFunc) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Wait(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTaskRunner_BoundedWorkers(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{Workers: 1})
	release := make(chan struct{})

	first := r.Submit("first", func(context.Context, driving.ProgressFunc) error {
		<-release
		return nil
	})
	second := r.Submit("second", func(context.Context, driving.ProgressFunc) error {
		return nil
	})

	require.Eventually(t, func() bool {
		s, err := r.Status(first)
		return err == nil && s.State == domain.TaskRunning
	}, time.Second, time.Millisecond)

	s, err := r.Status(second)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, s.State)

	close(release)
	assert.Equal(t, domain.TaskCompleted, waitTask(t, r, second).State)
	r.Shutdown()
}

func TestTaskRunner_ListInSubmissionOrder(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{Workers: 4})
	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		ids = append(ids, r.Submit(name, func(context.Context, driving.ProgressFunc) error { return nil }))
	}
	r.Shutdown()

	list := r.List()
	require.Len(t, list, 4)
	for i, status := range list {
		assert.Equal(t, ids[i], status.ID)
	}
}

func TestTaskRunner_EvictsOldTickets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	r := NewTaskRunner(domain.TaskSettings{Retention: time.Minute})
	r.now = clock.Now

	id := r.Submit("old", func(context.Context, driving.ProgressFunc) error { return nil })
	waitTask(t, r, id)

	clock.Advance(30 * time.Second)
	_, err := r.Status(id)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = r.Status(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, r.List())
	r.Shutdown()
}

func TestTaskRunner_SubmitAfterShutdown(t *testing.T) {
	r := NewTaskRunner(domain.TaskSettings{})
	r.Shutdown()

	called := false
	id := r.Submit("late", func(context.Context, driving.ProgressFunc) error {
		called = true
		return nil
	})
	status := waitTask(t, r, id)

	assert.False(t, called)
	assert.Equal(t, domain.TaskFailed, status.State)
	assert.Equal(t, errRunnerStopped, status.Error)
}
