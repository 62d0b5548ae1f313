package domain

import "fmt"

// File is one physical source file contributing to the document.
// Files are immutable once created.
type File struct {
	// ID is the file id inside the bilingual document.
	ID string

	// Name is the original path of the source file.
	Name string
}

// Unit groups segments that share inline-tag definitions.
type Unit struct {
	// File is the owning file id.
	File string

	// ID is the unit id, unique within its file.
	ID string

	// Data maps data-reference ids to the verbatim content of
	// non-text inline codes.
	Data map[string]string
}

// SegmentType distinguishes translatable segments from ignorables.
type SegmentType string

// Segment types.
const (
	// TypeSegment is a translatable segment.
	TypeSegment SegmentType = "S"

	// TypeIgnorable is inter-segment content that is never translated.
	TypeIgnorable SegmentType = "I"
)

// State is the confirmation state of a segment.
type State string

// Segment states.
const (
	StateInitial    State = "initial"
	StateTranslated State = "translated"
	StateFinal      State = "final"
)

// IsValid returns true if the state is recognised.
func (s State) IsValid() bool {
	switch s {
	case StateInitial, StateTranslated, StateFinal:
		return true
	default:
		return false
	}
}

// ParseState maps a document state attribute onto a store state.
// Reviewed segments are treated as translated.
func ParseState(v string) State {
	switch v {
	case "translated", "reviewed":
		return StateTranslated
	case "final":
		return StateFinal
	default:
		return StateInitial
	}
}

// SegmentKey addresses a segment inside the store.
type SegmentKey struct {
	File    string
	Unit    string
	Segment string
}

// String renders the key as file/unit/segment.
func (k SegmentKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.File, k.Unit, k.Segment)
}

// Segment is one row of the segments table.
type Segment struct {
	SegmentKey

	// Type is TypeSegment or TypeIgnorable.
	Type SegmentType

	// State is the confirmation state.
	State State

	// Child is the dense, file-scoped document order.
	Child int

	// Translate is false when the segment is locked.
	Translate bool

	// Tags is the number of inline codes in the source.
	Tags int

	// Space is true when whitespace must be preserved.
	Space bool

	// Source is the source inline content.
	Source Content

	// SourceText is the plain-text projection of Source.
	SourceText string

	// Target is the target inline content.
	Target Content

	// TargetText is the plain-text projection of Target.
	TargetText string

	// Words is the word count of SourceText.
	Words int

	// Chars is the character count of SourceText.
	Chars int

	// Idx is the display order computed by the re-index pass.
	Idx int
}

// Confirmable returns true when the segment has a translation that can
// be confirmed, checked or propagated.
func (s *Segment) Confirmable() bool {
	return s.Type == TypeSegment && s.TargetText != ""
}

// SetTarget replaces the target and keeps State consistent with it:
// an empty target is always initial, a non-empty one never is.
func (s *Segment) SetTarget(target Content, state State) {
	s.Target = target.Normalize()
	s.TargetText = s.Target.PlainText()
	switch {
	case s.Target.IsEmpty():
		s.State = StateInitial
	case state == StateInitial:
		s.State = StateTranslated
	default:
		s.State = state
	}
}
