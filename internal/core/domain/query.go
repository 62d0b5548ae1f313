package domain

// FilterLanguage selects which side of a segment a text filter applies to.
type FilterLanguage string

// Filter languages.
const (
	FilterSource FilterLanguage = "source"
	FilterTarget FilterLanguage = "target"
)

// SortKey selects the ordering of query results.
type SortKey string

// Sort keys.
const (
	// SortNone keeps document order.
	SortNone SortKey = ""

	// SortSource orders by plain source text.
	SortSource SortKey = "source"

	// SortTarget orders by plain target text.
	SortTarget SortKey = "target"

	// SortState orders by confirmation state.
	SortState SortKey = "status"
)

// IsValid returns true if the sort key is recognised.
func (k SortKey) IsValid() bool {
	switch k {
	case SortNone, SortSource, SortTarget, SortState:
		return true
	default:
		return false
	}
}

// SegmentQuery describes a filtered, sorted page of segments.
type SegmentQuery struct {
	// Start is the zero-based offset of the first row.
	Start int

	// Count is the page size. Zero or less returns every row.
	Count int

	// Filter is the text filter, empty for none.
	Filter string

	// Language selects the side the filter applies to.
	Language FilterLanguage

	// CaseSensitive makes the filter case sensitive.
	CaseSensitive bool

	// Regex interprets Filter as a regular expression.
	Regex bool

	// States restricts rows to these states. Empty means every state.
	States []State

	// Sort is the sort key.
	Sort SortKey

	// Descending reverses the sort.
	Descending bool
}

// SegmentRow is a rendered query result.
type SegmentRow struct {
	File      string `json:"file"`
	Unit      string `json:"unit"`
	Segment   string `json:"segment"`
	Index     int    `json:"index"`
	State     State  `json:"state"`
	Translate bool   `json:"translate"`
	Preserve  bool   `json:"preserve"`

	// Source and Target are rendered markup where every inline tag is a
	// numbered placeholder.
	Source string `json:"source"`
	Target string `json:"target"`

	// Match is the best stored match similarity.
	Match int `json:"match"`

	// TagErrors and SpaceErrors are only computed for confirmable rows.
	TagErrors   bool `json:"tagErrors"`
	SpaceErrors bool `json:"spaceErrors"`
}

// Key returns the segment key of the row.
func (r SegmentRow) Key() SegmentKey {
	return SegmentKey{File: r.File, Unit: r.Unit, Segment: r.Segment}
}

// TagIssueKind classifies an inline tag mismatch between source and target.
type TagIssueKind string

// Tag issue kinds, in precedence order.
const (
	TagsMissing   TagIssueKind = "missing"
	TagsExtra     TagIssueKind = "extra"
	TagsReordered TagIssueKind = "reordered"
	TagsDifferent TagIssueKind = "different"
)

// TagIssue is one segment with a tag mismatch.
type TagIssue struct {
	SegmentKey
	Index int
	Kind  TagIssueKind
}

// SpaceIssue is one segment whose leading or trailing whitespace differs
// between source and target.
type SpaceIssue struct {
	SegmentKey
	Index          int
	SourceLeading  string
	TargetLeading  string
	SourceTrailing string
	TargetTrailing string
}
