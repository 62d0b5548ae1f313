package driving

import (
	"context"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
)

// ProgressFunc receives the completion percentage of a long operation.
type ProgressFunc func(percent float64)

// SaveRequest is a translation edit.
type SaveRequest struct {
	// Key addresses the segment.
	Key domain.SegmentKey

	// Target is the rendered target markup, tags as numbered placeholders.
	Target string

	// Confirm marks the segment final.
	Confirm bool

	// Memory is the id of the memory that receives confirmed units,
	// empty for none.
	Memory string
}

// SegmentService is the segment store of one open bilingual document.
// Mutating operations are serialized per store.
type SegmentService interface {
	// Open materializes the document on first use, or reopens the
	// persisted store without reparsing.
	Open(ctx context.Context, path string) error

	// Close waits for pending memory pushes and releases the store.
	Close() error

	// Languages returns the source and target languages of the document.
	Languages() (string, string)

	// Query returns a filtered, sorted page of rendered rows.
	Query(ctx context.Context, q domain.SegmentQuery) ([]domain.SegmentRow, error)

	// Segment returns a stored segment.
	Segment(ctx context.Context, key domain.SegmentKey) (*domain.Segment, error)

	// SaveSegment stores a translation, propagating confirmed ones.
	SaveSegment(ctx context.Context, req SaveRequest) (*domain.Segment, error)

	// SaveSource replaces the source of a segment.
	SaveSource(ctx context.Context, key domain.SegmentKey, source string) (*domain.Segment, error)

	// SplitSegment splits a segment at a character offset of its source
	// and returns the id of the new segment.
	SplitSegment(ctx context.Context, key domain.SegmentKey, offset int) (string, error)

	// MergeSegment merges a segment into its predecessor and returns the
	// id of the merged segment.
	MergeSegment(ctx context.Context, key domain.SegmentKey) (string, error)

	// LockSegment locks or unlocks one segment.
	LockSegment(ctx context.Context, key domain.SegmentKey, locked bool) error

	// LockDuplicates locks every repeated source after its first occurrence
	// and returns how many segments were locked.
	LockDuplicates(ctx context.Context) (int, error)

	// UnlockAll unlocks every segment.
	UnlockAll(ctx context.Context) error

	// AnalyzeSpaces lists segments whose outer whitespace differs.
	AnalyzeSpaces(ctx context.Context) ([]domain.SpaceIssue, error)

	// FixSpaces copies the source whitespace onto the target and returns
	// how many segments changed.
	FixSpaces(ctx context.Context) (int, error)

	// AnalyzeTags lists segments whose target tags differ from the source.
	AnalyzeTags(ctx context.Context) ([]domain.TagIssue, error)

	// Matches returns the matches of a segment with tags remapped onto it.
	Matches(ctx context.Context, key domain.SegmentKey) ([]domain.Match, error)

	// RemoveMatches deletes the matches of a segment; a non-empty origin
	// restricts the deletion.
	RemoveMatches(ctx context.Context, key domain.SegmentKey, origin string) error

	// TMTranslate searches a memory for one segment and stores the hits.
	TMTranslate(ctx context.Context, key domain.SegmentKey, memory string, similarity int) ([]domain.Match, error)

	// TMTranslateAll batch-translates every unconfirmed segment.
	TMTranslateAll(ctx context.Context, memory string, similarity int, progress ProgressFunc) error

	// AssembleMatches synthesizes a match for one segment.
	AssembleMatches(ctx context.Context, key domain.SegmentKey, memory, glossary string) (*domain.Match, error)

	// AssembleMatchesAll synthesizes matches for every unconfirmed segment.
	AssembleMatchesAll(ctx context.Context, memory, glossary string, progress ProgressFunc) error

	// Terms returns the glossary hits of a segment.
	Terms(ctx context.Context, key domain.SegmentKey) ([]domain.Term, error)

	// SearchTerms looks up the phrases of a segment in a glossary and
	// stores the hits.
	SearchTerms(ctx context.Context, key domain.SegmentKey, glossary string) ([]domain.Term, error)

	// Notes returns the notes of a segment.
	Notes(ctx context.Context, key domain.SegmentKey) ([]domain.Note, error)

	// AddNote appends a note and returns its id.
	AddNote(ctx context.Context, key domain.SegmentKey, text string) (int, error)

	// RemoveNote deletes a note.
	RemoveNote(ctx context.Context, key domain.SegmentKey, id int) error

	// ConfirmAll confirms every translated segment.
	ConfirmAll(ctx context.Context) (int, error)

	// UnconfirmAll returns every confirmed segment to translated.
	UnconfirmAll(ctx context.Context) (int, error)

	// RemoveTranslations clears every unconfirmed target.
	RemoveTranslations(ctx context.Context) (int, error)

	// CopySources copies the source into every empty target.
	CopySources(ctx context.Context) (int, error)

	// ReplaceText replaces text in unlocked targets.
	ReplaceText(ctx context.Context, req ReplaceRequest) (int, error)

	// Statistics summarises the store.
	Statistics(ctx context.Context) (*domain.Statistics, error)

	// UpdateXliff folds the stored state back into the document file.
	UpdateXliff(ctx context.Context) error

	// ExportXliff writes the updated document to path.
	ExportXliff(ctx context.Context, path string) error

	// ExportTranslations writes one translated file per original file
	// into dir, at the original's relative path. Absolute originals,
	// originals outside dir and two originals naming the same file are
	// rejected with domain.ErrInvalidInput before anything is written.
	ExportTranslations(ctx context.Context, dir string, merger driven.Merger) error
}

// ReplaceRequest is a search-and-replace over targets.
type ReplaceRequest struct {
	Search        string
	Replace       string
	Regex         bool
	CaseSensitive bool
}
