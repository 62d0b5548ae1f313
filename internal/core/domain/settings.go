package domain

import "time"

// Store defaults.
const (
	DefaultPropagationThreshold = 60
	DefaultBatchSize            = 100
	DefaultCommitEvery          = 500
	DefaultTagPenalty           = 1
	DefaultTaskWorkers          = 2
	DefaultTaskRetention        = 10 * time.Minute
)

// StoreSettings holds segment store behaviour configuration.
type StoreSettings struct {
	// AutoConfirm makes auto-applied 100% matches final instead of translated.
	AutoConfirm bool

	// Penalization is subtracted from every batch TM similarity.
	Penalization int

	// TagPenalty is subtracted per inline code a batch match is short or over.
	TagPenalty int

	// PropagationThreshold is the similarity a same-document match must exceed.
	PropagationThreshold int

	// BatchSize is the page size of batch TM translation.
	BatchSize int

	// CommitEvery is the number of rows per bulk-load commit.
	CommitEvery int

	// Separators overrides the word diff separators when non-empty.
	Separators string
}

// DefaultStoreSettings returns the settings used when nothing is configured.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		TagPenalty:           DefaultTagPenalty,
		PropagationThreshold: DefaultPropagationThreshold,
		BatchSize:            DefaultBatchSize,
		CommitEvery:          DefaultCommitEvery,
	}
}

// TaskSettings configures the background task pool.
type TaskSettings struct {
	// Workers is the number of tasks that may run at once.
	Workers int

	// Retention is how long finished tickets remain visible.
	Retention time.Duration
}
