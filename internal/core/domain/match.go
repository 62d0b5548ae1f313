package domain

import (
	"sort"
	"strings"
)

// MatchType identifies how a match was produced.
type MatchType string

// Match types.
const (
	// MatchTM is a translation memory match, including same-document matches.
	MatchTM MatchType = "tm"

	// MatchMT is a machine translation.
	MatchMT MatchType = "mt"

	// MatchAM is a match synthesized by the assembler.
	MatchAM MatchType = "am"
)

// Reserved match origins.
const (
	// OriginSelf marks matches propagated from the same document.
	OriginSelf = "Self"

	// OriginAuto marks matches synthesized by the assembler.
	OriginAuto = "Auto"
)

// Match is a translation proposal attached to a segment.
type Match struct {
	SegmentKey

	// ID is derived from the origin and the plain source text, so that
	// recomputing a match updates it in place.
	ID string

	// Origin is the engine or memory name, OriginSelf or OriginAuto.
	Origin string

	// Type is the match type.
	Type MatchType

	// Similarity is the 0-100 similarity against the segment source.
	Similarity int

	// Source is the match source content.
	Source Content

	// Target is the match target content.
	Target Content

	// OriginalData maps data-reference ids used by the match tags to
	// their verbatim content.
	OriginalData map[string]string
}

// SortMatches orders matches by similarity descending, then origin,
// then type. Ties keep their relative order.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matchLess(matches[i], matches[j])
	})
}

// BestMatch returns the match that sorts first, or false if there is none.
func BestMatch(matches []Match) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if matchLess(m, best) {
			best = m
		}
	}
	return best, true
}

func matchLess(a, b Match) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Origin != b.Origin {
		return strings.Compare(a.Origin, b.Origin) < 0
	}
	return a.Type < b.Type
}

// Term is a glossary hit attached to a segment. Terms are write-once.
type Term struct {
	SegmentKey

	// ID is derived from the origin and the term source text.
	ID string

	// Origin is the glossary name.
	Origin string

	// Source is the term in the source language.
	Source string

	// Target is the term translation.
	Target string
}

// Note is a free-text annotation on a segment.
type Note struct {
	SegmentKey

	// ID increments per segment, starting at 1.
	ID int

	// Text is the annotation.
	Text string
}
