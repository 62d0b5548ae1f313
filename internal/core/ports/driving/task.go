package driving

import (
	"context"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// TaskFunc is the body of a background task. It reports progress through
// the callback and its error becomes the terminal state of the ticket.
type TaskFunc func(ctx context.Context, progress ProgressFunc) error

// TaskService runs bulk operations in the background and tracks them as
// progress tickets. Tasks cannot be cancelled once started.
type TaskService interface {
	// Submit queues a task and returns its ticket id.
	Submit(name string, fn TaskFunc) string

	// Status returns the ticket of a task.
	Status(id string) (*domain.TaskStatus, error)

	// Wait blocks until the task is finished or ctx is done.
	Wait(ctx context.Context, id string) (*domain.TaskStatus, error)

	// List returns every ticket still retained.
	List() []domain.TaskStatus

	// Shutdown waits for running tasks to finish.
	Shutdown()
}
