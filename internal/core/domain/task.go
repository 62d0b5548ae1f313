package domain

import "time"

// TaskState is the lifecycle state of a background task.
type TaskState string

// Task states.
const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// IsTerminal returns true once the task can no longer change.
func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskStatus is the progress ticket of a background task.
type TaskStatus struct {
	// ID is the ticket id.
	ID string

	// Name describes the task.
	Name string

	// State is the lifecycle state.
	State TaskState

	// Progress is the completion percentage, 0-100.
	Progress float64

	// Error is the cause of a failed task.
	Error string

	// StartedAt is when the task started running.
	StartedAt time.Time

	// EndedAt is when the task reached a terminal state.
	EndedAt time.Time
}

// Statistics summarises the segments of a store.
type Statistics struct {
	// Segments is the number of translatable segments.
	Segments int

	// Locked is the number of locked segments.
	Locked int

	// Untranslated, Translated and Confirmed count unlocked segments by state.
	Untranslated int
	Translated   int
	Confirmed    int

	// Words and Chars are totals over unlocked segments.
	Words int
	Chars int

	// UntranslatedWords, TranslatedWords and ConfirmedWords split Words by state.
	UntranslatedWords int
	TranslatedWords   int
	ConfirmedWords    int
}

// TranslationUnit is a confirmed segment pushed to a memory.
type TranslationUnit struct {
	// Key is the segment the unit comes from.
	Key SegmentKey

	// Source and Target are the unit content.
	Source Content
	Target Content

	// SrcLang and TgtLang are the document languages.
	SrcLang string
	TgtLang string

	// Tags maps inline code ids to their verbatim content.
	Tags map[string]string

	// Previous and Next are the keys of the neighbouring segments, empty
	// at document edges.
	Previous string
	Next     string
}

// TranslationRequest is one segment of a batch translation.
type TranslationRequest struct {
	Key  SegmentKey
	Text string
	Tags int
}
