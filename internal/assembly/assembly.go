// Package assembly synthesizes translations for segments that have no
// usable match.
//
// The primary path diffs the new source against ranked fuzzy matches and
// substitutes every differing span, either verbatim (numbers, e-mail
// addresses) or through the glossary. When no candidate can be repaired,
// the fallback path translates every glossary term found in the new
// source and returns the result as a zero-similarity draft.
package assembly

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/similarity"
	"github.com/rmraya/swordfish-core/internal/worddiff"
)

// Glossary looks up term translations.
type Glossary interface {
	SearchTerm(ctx context.Context, term, srcLang, tgtLang string, similarity int, caseSensitive bool) ([]domain.Term, error)
}

// MaxPhraseWords is the longest phrase the fallback path looks up.
const MaxPhraseWords = 5

// markerPrefix starts the id of every marker the assembler inserts.
const markerPrefix = "am"

// emailPattern matches an address, or the part of one left in a single
// diff run when the domain suffix is shared and split off at a dot.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*$`)

// Assembler builds synthesized matches.
type Assembler struct {
	differ   *worddiff.Differ
	scorer   similarity.Scorer
	glossary Glossary
	srcLang  string
	tgtLang  string
}

// New creates an Assembler for one language pair.
func New(differ *worddiff.Differ, scorer similarity.Scorer, glossary Glossary, srcLang, tgtLang string) *Assembler {
	return &Assembler{
		differ:   differ,
		scorer:   scorer,
		glossary: glossary,
		srcLang:  srcLang,
		tgtLang:  tgtLang,
	}
}

// Assemble returns the best synthesized match for source, built from the
// ranked candidates or, failing that, from glossary terms alone. The
// returned match has no key or id; the caller attaches it to a segment.
func (a *Assembler) Assemble(ctx context.Context, source string, candidates []domain.Match) (domain.Match, bool, error) {
	var results []domain.Match

	seen := make(map[string]bool)
	for _, c := range candidates {
		plain := c.Source.PlainText()
		if seen[plain] || c.Target.IsEmpty() {
			continue
		}
		seen[plain] = true

		m, ok, err := a.repair(ctx, source, c)
		if err != nil {
			return domain.Match{}, false, err
		}
		if ok {
			results = append(results, m)
		}
	}

	if len(results) == 0 {
		m, ok, err := a.fromTerms(ctx, source)
		if err != nil {
			return domain.Match{}, false, err
		}
		if ok {
			results = append(results, m)
		}
	}

	best, ok := domain.BestMatch(results)
	return best, ok, nil
}

// ==================== Primary path ====================

// repair substitutes every differing span of a candidate. A candidate is
// only usable when every span pair can be substituted.
func (a *Assembler) repair(ctx context.Context, source string, c domain.Match) (domain.Match, bool, error) {
	plainSource := c.Source.PlainText()
	plainTarget := c.Target.PlainText()

	diff := a.differ.Diff(source, plainSource)
	xRuns := worddiff.Runs(diff.X)
	yRuns := worddiff.Runs(diff.Y)
	if len(xRuns) == 0 || len(xRuns) != len(yRuns) {
		return domain.Match{}, false, nil
	}

	s := &substitution{a: a, source: c.Source.Clone(), target: c.Target.Clone()}
	for i := range xRuns {
		x, y := xRuns[i], yRuns[i]

		if verbatim(x) && verbatim(y) {
			if strings.Count(plainSource, y) != 1 || strings.Count(plainTarget, y) != 1 {
				return domain.Match{}, false, nil
			}
			if !s.replace(y, x, y, x, c.Origin) {
				return domain.Match{}, false, nil
			}
			continue
		}

		newTerm, err := a.lookup(ctx, x)
		if err != nil {
			return domain.Match{}, false, err
		}
		oldTerm, err := a.lookup(ctx, y)
		if err != nil {
			return domain.Match{}, false, err
		}
		if newTerm == nil || oldTerm == nil {
			return domain.Match{}, false, nil
		}
		if !s.replace(y, x, oldTerm.Target, newTerm.Target, newTerm.Origin) {
			return domain.Match{}, false, nil
		}
	}

	if s.source.PlainText() == plainSource {
		return domain.Match{}, false, nil
	}
	return domain.Match{
		Origin:       domain.OriginAuto,
		Type:         domain.MatchAM,
		Similarity:   a.scorer.Similarity(source, s.source.PlainText()),
		Source:       s.source.Normalize(),
		Target:       s.target.Normalize(),
		OriginalData: copyData(c.OriginalData),
	}, true, nil
}

// lookup returns the exact glossary entry for term, or nil.
func (a *Assembler) lookup(ctx context.Context, term string) (*domain.Term, error) {
	hits, err := a.glossary.SearchTerm(ctx, term, a.srcLang, a.tgtLang, 100, true)
	if err != nil {
		return nil, fmt.Errorf("searching term %q: %w", term, err)
	}
	for i := range hits {
		if hits[i].Source == term && hits[i].Target != "" {
			return &hits[i], nil
		}
	}
	return nil, nil
}

// verbatim reports whether a span can be copied without translation:
// numbers, punctuation, currency and spaces, or an e-mail address.
func verbatim(s string) bool {
	if emailPattern.MatchString(s) {
		return true
	}
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), unicode.IsSpace(r), unicode.IsPunct(r), unicode.Is(unicode.Sc, r):
		case strings.ContainsRune("+=<>", r):
		default:
			return false
		}
	}
	return s != ""
}

// substitution edits a candidate source and target in place, wrapping
// every inserted span in a term marker.
type substitution struct {
	a      *Assembler
	source domain.Content
	target domain.Content
	n      int
}

// replace swaps oldSource in the source for newSource and oldTarget in the
// target for newTarget. Each old span must occur exactly once as whole
// words outside the markers already inserted. Both markers share one id.
func (s *substitution) replace(oldSource, newSource, oldTarget, newTarget, origin string) bool {
	if s.a.count(s.source, oldSource) != 1 || s.a.count(s.target, oldTarget) != 1 {
		return false
	}
	id := markerPrefix + strconv.Itoa(s.n+1)
	source, ok := s.a.replaceIn(s.source, oldSource, marker(id, newSource, origin))
	if !ok {
		return false
	}
	target, ok := s.a.replaceIn(s.target, oldTarget, marker(id, newTarget, origin))
	if !ok {
		return false
	}
	s.source, s.target = source, target
	s.n++
	return true
}

// count returns how often old occurs as whole words in the unmarked text
// runs of content.
func (a *Assembler) count(content domain.Content, old string) int {
	n := 0
	for _, i := range unmarked(content) {
		n += len(a.wordIndexes(content[i].Text, old))
	}
	return n
}

// replaceIn swaps the first whole-word occurrence of old for with.
func (a *Assembler) replaceIn(content domain.Content, old string, with []domain.Run) (domain.Content, bool) {
	for _, i := range unmarked(content) {
		text := content[i].Text
		hits := a.wordIndexes(text, old)
		if len(hits) == 0 {
			continue
		}
		at := hits[0]
		out := make(domain.Content, 0, len(content)+len(with)+2)
		out = append(out, content[:i]...)
		out = append(out, domain.Text(text[:at]))
		out = append(out, with...)
		out = append(out, domain.Text(text[at+len(old):]))
		out = append(out, content[i+1:]...)
		return out, true
	}
	return content, false
}

// wordIndexes lists the byte offsets at which term occurs in s starting
// and ending on a word boundary.
func (a *Assembler) wordIndexes(s, term string) []int {
	if term == "" {
		return nil
	}
	var hits []int
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], term)
		if i < 0 {
			break
		}
		at := from + i
		if a.boundary(s, at, true, term) && a.boundary(s, at+len(term), false, term) {
			hits = append(hits, at)
			from = at + len(term)
			continue
		}
		_, size := utf8.DecodeRuneInString(s[at:])
		from = at + size
	}
	return hits
}

// unmarked returns the indexes of the text runs of content that are not
// inside a marker inserted by the assembler.
func unmarked(content domain.Content) []int {
	var idx []int
	depth := 0
	for i, r := range content {
		switch r.Kind {
		case domain.OpenTag:
			if strings.HasPrefix(r.ID, markerPrefix) {
				depth++
			}
		case domain.CloseTag:
			if strings.HasPrefix(r.ID, markerPrefix) {
				depth--
			}
		case domain.TextRun:
			if depth == 0 {
				idx = append(idx, i)
			}
		}
	}
	return idx
}

// marker wraps text in an <mrk type="term"> carrying its provenance.
func marker(id, text, origin string) []domain.Run {
	attrs := []domain.Attr{
		{Name: "id", Value: id},
		{Name: "type", Value: "term"},
		{Name: "value", Value: origin},
	}
	return []domain.Run{
		{Kind: domain.OpenTag, Name: "mrk", ID: id, Attrs: attrs},
		domain.Text(text),
		{Kind: domain.CloseTag, Name: "mrk", ID: id, Attrs: append([]domain.Attr(nil), attrs...)},
	}
}

func copyData(data map[string]string) map[string]string {
	if data == nil {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
