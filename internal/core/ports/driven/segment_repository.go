package driven

import (
	"context"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// SegmentRepository persists the files, units, segments, matches, terms
// and notes of one document. Implementations are used by one store at a
// time and need not be safe for concurrent writers.
//
// Methods taking a SegmentKey with an empty Segment apply to the whole unit.
type SegmentRepository interface {
	// IsEmpty reports whether no document has been materialized yet.
	IsEmpty(ctx context.Context) (bool, error)

	// IsMaterialized reports whether a bulk load finished and was marked
	// with MarkMaterialized.
	IsMaterialized(ctx context.Context) (bool, error)

	// MarkMaterialized records that the document is fully loaded.
	MarkMaterialized(ctx context.Context) error

	// Clear deletes every stored row and the materialized mark.
	Clear(ctx context.Context) error

	// NewBatch starts a bulk load that commits every commitEvery rows.
	NewBatch(ctx context.Context, commitEvery int) (Batch, error)

	// Files returns the files in insertion order.
	Files(ctx context.Context) ([]domain.File, error)

	// Unit retrieves a unit and its inline-tag table.
	Unit(ctx context.Context, file, unit string) (*domain.Unit, error)

	// SaveUnit replaces the inline-tag table of a unit.
	SaveUnit(ctx context.Context, unit *domain.Unit) error

	// Segment retrieves a translatable segment.
	Segment(ctx context.Context, key domain.SegmentKey) (*domain.Segment, error)

	// SegmentAt retrieves the translatable segment with the given index.
	SegmentAt(ctx context.Context, idx int) (*domain.Segment, error)

	// UnitSegments returns every segment and ignorable of a unit in
	// document order.
	UnitSegments(ctx context.Context, file, unit string) ([]domain.Segment, error)

	// Segments returns segments matching the filter.
	Segments(ctx context.Context, filter SegmentFilter) ([]domain.Segment, error)

	// SaveSegment updates the mutable columns of a segment: state,
	// translate, source and target.
	SaveSegment(ctx context.Context, seg *domain.Segment) error

	// ReplaceUnitSegments deletes every row of a unit and inserts segs in
	// one transaction.
	ReplaceUnitSegments(ctx context.Context, file, unit string, segs []domain.Segment) error

	// ShiftChildren adds delta to the child order of every row of file
	// whose child is at least from.
	ShiftChildren(ctx context.Context, file string, from, delta int) error

	// Reindex assigns dense display indexes to translatable segments,
	// ordered by file then child.
	Reindex(ctx context.Context) error

	// SetTranslateAll locks or unlocks every segment.
	SetTranslateAll(ctx context.Context, translate bool) error

	// Matches returns the matches of a segment or unit, best first.
	Matches(ctx context.Context, key domain.SegmentKey) ([]domain.Match, error)

	// SaveMatch inserts or replaces a match.
	SaveMatch(ctx context.Context, m *domain.Match) error

	// DeleteMatches removes the matches of a segment or unit. A non-empty
	// origin restricts the deletion to that origin.
	DeleteMatches(ctx context.Context, key domain.SegmentKey, origin string) error

	// Terms returns the glossary hits of a segment or unit.
	Terms(ctx context.Context, key domain.SegmentKey) ([]domain.Term, error)

	// SaveTerm inserts a term unless its key already exists, reporting
	// whether it was inserted.
	SaveTerm(ctx context.Context, t *domain.Term) (bool, error)

	// Notes returns the notes of a segment or unit.
	Notes(ctx context.Context, key domain.SegmentKey) ([]domain.Note, error)

	// AddNote appends a note to a segment and returns its id.
	AddNote(ctx context.Context, key domain.SegmentKey, text string) (int, error)

	// RemoveNote deletes a note.
	RemoveNote(ctx context.Context, key domain.SegmentKey, id int) error

	// Statistics counts translatable segments, words and characters.
	Statistics(ctx context.Context) (*domain.Statistics, error)

	// Close releases the underlying connection.
	Close() error
}

// Batch bulk-loads a freshly parsed document.
type Batch interface {
	AddFile(f domain.File) error
	AddUnit(u domain.Unit) error
	AddSegment(s domain.Segment) error
	AddMatch(m domain.Match) error
	AddTerm(t domain.Term) error
	AddNote(n domain.Note) error

	// Commit commits the rows added since the last periodic commit.
	Commit() error

	// Rollback discards the rows added since the last periodic commit.
	Rollback() error
}

// SegmentFilter selects segments. The zero value selects every
// translatable segment in display order.
type SegmentFilter struct {
	// Ignorables includes ignorable rows; they have no display index and
	// sort after segments of the same file by child.
	Ignorables bool

	// States restricts rows to these states.
	States []domain.State

	// UnlockedOnly excludes locked segments.
	UnlockedOnly bool

	// Confirmable restricts rows to segments with a non-empty target.
	Confirmable bool

	// Sort orders rows by source text, target text or state.
	Sort domain.SortKey

	// Descending reverses the sort.
	Descending bool
}
