// Package messages defines the Bubbletea messages of the segment editor.
package messages

import (
	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// RowsLoaded carries a page of query results back to the model.
type RowsLoaded struct {
	Rows []domain.SegmentRow
	Err  error
}

// StatsLoaded carries refreshed statistics.
type StatsLoaded struct {
	Stats *domain.Statistics
	Err   error
}

// SegmentSaved is sent after a target edit was stored.
type SegmentSaved struct {
	Segment *domain.Segment
	Err     error
}

// SegmentLocked is sent after a lock toggle.
type SegmentLocked struct {
	Key    domain.SegmentKey
	Locked bool
	Err    error
}

// TaskTick polls a background task.
type TaskTick struct {
	ID string
}

// TaskUpdated carries the latest ticket of a background task.
type TaskUpdated struct {
	Status *domain.TaskStatus
	Err    error
}
