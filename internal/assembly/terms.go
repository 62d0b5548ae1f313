package assembly

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/worddiff"
)

// Placeholders stand in for substituted terms until every term has been
// found. Each one is a single private-use character that never appears in
// stored text.
const (
	placeholderBase = '\uE100'
	placeholderMax  = '\uF8FF'
)

func isPlaceholder(r rune) bool {
	return r >= placeholderBase && r <= placeholderMax
}

// Phrase is a span of the source made of consecutive words.
type Phrase struct {
	Text  string
	Start int
	End   int
}

// Phrases returns every run of 1 to max consecutive words of s, shortest
// first at each position, without duplicates.
func Phrases(d *worddiff.Differ, s string, max int) []Phrase {
	spans := wordSpans(d, s)
	seen := make(map[string]bool)
	var out []Phrase
	for i := range spans {
		for n := 1; n <= max && i+n <= len(spans); n++ {
			p := Phrase{Start: spans[i][0], End: spans[i+n-1][1]}
			p.Text = s[p.Start:p.End]
			if seen[p.Text] {
				continue
			}
			seen[p.Text] = true
			out = append(out, p)
		}
	}
	return out
}

// wordSpans returns the byte ranges of the word tokens of s.
func wordSpans(d *worddiff.Differ, s string) [][2]int {
	var spans [][2]int
	pos := 0
	for _, t := range d.Tokenize(s) {
		start := pos
		pos += len(t)
		r, size := utf8.DecodeRuneInString(t)
		if size == len(t) && (d.IsSeparator(r) || unicode.IsSpace(r) || unicode.IsPunct(r)) {
			continue
		}
		spans = append(spans, [2]int{start, pos})
	}
	return spans
}

type glossaryHit struct {
	target string
	origin string
}

// SearchTerms looks up every phrase of source in the glossary and returns
// the exact hits, longest first.
func (a *Assembler) SearchTerms(ctx context.Context, source string) ([]domain.Term, error) {
	var terms []domain.Term
	for _, p := range Phrases(a.differ, source, MaxPhraseWords) {
		hit, err := a.lookup(ctx, p.Text)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			terms = append(terms, *hit)
		}
	}
	fold := cases.Fold()
	sort.SliceStable(terms, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(terms[i].Source), utf8.RuneCountInString(terms[j].Source)
		if li != lj {
			return li > lj
		}
		return fold.String(terms[i].Source) < fold.String(terms[j].Source)
	})
	return terms, nil
}

// fromTerms replaces every glossary term of source with its translation.
func (a *Assembler) fromTerms(ctx context.Context, source string) (domain.Match, bool, error) {
	terms, err := a.SearchTerms(ctx, source)
	if err != nil {
		return domain.Match{}, false, err
	}
	if len(terms) == 0 {
		return domain.Match{}, false, nil
	}

	// Replace terms with numbered placeholders first, so a shorter term
	// cannot match inside a translation inserted for a longer one.
	text := source
	var used []glossaryHit
	for _, t := range terms {
		if placeholderBase+rune(len(used)) > placeholderMax {
			break
		}
		placeholder := string(placeholderBase + rune(len(used)))
		replaced, ok := a.replaceWords(text, t.Source, placeholder)
		if !ok {
			continue
		}
		text = replaced
		used = append(used, glossaryHit{target: t.Target, origin: t.Origin})
	}
	if len(used) == 0 {
		return domain.Match{}, false, nil
	}

	return domain.Match{
		Origin:     domain.OriginAuto,
		Type:       domain.MatchAM,
		Similarity: 0,
		Source:     domain.Content{domain.Text(source)},
		Target:     expand(text, used),
	}, true, nil
}

// replaceWords replaces every occurrence of term in s that starts and
// ends on a word boundary.
func (a *Assembler) replaceWords(s, term, with string) (string, bool) {
	var b strings.Builder
	found := false
	rest := s
	for {
		i := strings.Index(rest, term)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		consumed := len(s) - len(rest)
		if a.boundary(s, consumed+i, true, term) && a.boundary(s, consumed+i+len(term), false, term) {
			b.WriteString(rest[:i])
			b.WriteString(with)
			found = true
		} else {
			b.WriteString(rest[:i+len(term)])
		}
		rest = rest[i+len(term):]
	}
	return b.String(), found
}

// boundary reports whether byte offset at of s separates words. start
// tells whether at is the start of term or its end.
func (a *Assembler) boundary(s string, at int, start bool, term string) bool {
	var edge, next rune
	var size int
	if start {
		if at == 0 {
			return true
		}
		edge, _ = utf8.DecodeRuneInString(term)
		next, size = utf8.DecodeLastRuneInString(s[:at])
	} else {
		if at == len(s) {
			return true
		}
		edge, _ = utf8.DecodeLastRuneInString(term)
		next, size = utf8.DecodeRuneInString(s[at:])
	}
	if size == 0 {
		return true
	}
	return a.breaks(edge) || a.breaks(next) || isPlaceholder(next)
}

func (a *Assembler) breaks(r rune) bool {
	return a.differ.IsSeparator(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || worddiff.IsSingleCharScript(r)
}

// expand turns placeholder text into content, wrapping every translated
// term in a marker.
func expand(text string, used []glossaryHit) domain.Content {
	var out domain.Content
	var b strings.Builder
	n := 0
	for _, r := range text {
		k := int(r - placeholderBase)
		if !isPlaceholder(r) || k >= len(used) {
			b.WriteRune(r)
			continue
		}
		n++
		out = append(out, domain.Text(b.String()))
		out = append(out, marker(markerPrefix+strconv.Itoa(n), used[k].target, used[k].origin)...)
		b.Reset()
	}
	out = append(out, domain.Text(b.String()))
	return out.Normalize()
}
