package memory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/similarity"
)

// Ensure Engine implements the interface.
var _ driven.TranslationEngine = (*Engine)(nil)

// unit is a stored translation.
type unit struct {
	key        string
	source     domain.Content
	target     domain.Content
	sourceText string
	srcLang    string
	tgtLang    string
	tags       map[string]string
}

type entry struct {
	source  string
	target  string
	srcLang string
	tgtLang string
}

// Engine is an in-memory translation memory and glossary. Stored units
// become searchable on Commit.
type Engine struct {
	name string

	mu      sync.RWMutex
	units   []unit
	index   map[string]int
	pending map[string]unit
	terms   []entry
	closed  bool
}

// New creates an empty engine.
func New(name string) *Engine {
	return &Engine{
		name:    name,
		index:   make(map[string]int),
		pending: make(map[string]unit),
	}
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return e.name
}

// Import reads tab-separated source and target pairs, one per line, and
// adds each as a committed unit and as a glossary entry. Blank lines and
// lines starting with # are skipped.
func (e *Engine) Import(r io.Reader, srcLang, tgtLang string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, domain.ErrEngineUnavailable
	}

	n := 0
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		source, target, ok := strings.Cut(text, "\t")
		if !ok {
			return n, fmt.Errorf("line %d: missing tab separator: %w", line, domain.ErrInvalidInput)
		}
		source, target = strings.TrimSpace(source), strings.TrimSpace(target)
		e.put(newUnit(domain.Content{domain.Text(source)}, domain.Content{domain.Text(target)}, srcLang, tgtLang, nil))
		e.terms = append(e.terms, entry{source: source, target: target, srcLang: srcLang, tgtLang: tgtLang})
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("reading pairs: %w", err)
	}
	return n, nil
}

// AddTerm adds a glossary entry.
func (e *Engine) AddTerm(source, target, srcLang, tgtLang string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.terms = append(e.terms, entry{source: source, target: target, srcLang: srcLang, tgtLang: tgtLang})
}

// SearchTranslation returns matches for text at or above minSimilarity.
func (e *Engine) SearchTranslation(_ context.Context, text, srcLang, tgtLang string, minSimilarity int, caseSensitive bool) ([]domain.Match, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, domain.ErrEngineUnavailable
	}
	return e.search(text, srcLang, tgtLang, minSimilarity, caseSensitive), nil
}

// SearchExact returns the matches whose plain source equals text.
func (e *Engine) SearchExact(_ context.Context, text, srcLang, tgtLang string) ([]domain.Match, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, domain.ErrEngineUnavailable
	}
	var matches []domain.Match
	for _, u := range e.units {
		if u.sourceText == text && sameLangs(u.srcLang, u.tgtLang, srcLang, tgtLang) {
			matches = append(matches, u.match(e.name, 100))
		}
	}
	return matches, nil
}

// SearchTerm returns glossary entries for term at or above minSimilarity.
func (e *Engine) SearchTerm(_ context.Context, term, srcLang, tgtLang string, minSimilarity int, caseSensitive bool) ([]domain.Term, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, domain.ErrEngineUnavailable
	}

	fold := folder(caseSensitive)
	needle := fold(term)
	var terms []domain.Term
	for _, t := range e.terms {
		if !sameLangs(t.srcLang, t.tgtLang, srcLang, tgtLang) {
			continue
		}
		if similarity.Score(needle, fold(t.source)) < minSimilarity {
			continue
		}
		terms = append(terms, domain.Term{Origin: e.name, Source: t.source, Target: t.target})
	}
	return terms, nil
}

// StoreUnit stages a translation unit until the next Commit.
func (e *Engine) StoreUnit(_ context.Context, tu *domain.TranslationUnit) error {
	if tu == nil || tu.Source.IsEmpty() {
		return domain.ErrInvalidInput
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineUnavailable
	}
	u := newUnit(tu.Source.Clone(), tu.Target.Clone(), tu.SrcLang, tu.TgtLang, tu.Tags)
	e.pending[u.key] = u
	return nil
}

// Commit makes staged units searchable.
func (e *Engine) Commit(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrEngineUnavailable
	}
	for k, u := range e.pending {
		e.put(u)
		delete(e.pending, k)
	}
	return nil
}

// BatchTranslate searches every request case-insensitively.
func (e *Engine) BatchTranslate(ctx context.Context, reqs []domain.TranslationRequest, srcLang, tgtLang string, minSimilarity int) (map[domain.SegmentKey][]domain.Match, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, domain.ErrEngineUnavailable
	}

	out := make(map[domain.SegmentKey][]domain.Match, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if matches := e.search(req.Text, srcLang, tgtLang, minSimilarity, false); len(matches) > 0 {
			out[req.Key] = matches
		}
	}
	return out, nil
}

// Close releases the engine; later calls fail with ErrEngineUnavailable.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.units = nil
	e.pending = nil
	e.terms = nil
	return nil
}

// Len returns the number of committed units.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.units)
}

func (e *Engine) put(u unit) {
	if i, ok := e.index[u.key]; ok {
		e.units[i] = u
		return
	}
	e.index[u.key] = len(e.units)
	e.units = append(e.units, u)
}

func (e *Engine) search(text, srcLang, tgtLang string, minSimilarity int, caseSensitive bool) []domain.Match {
	fold := folder(caseSensitive)
	needle := fold(text)
	var matches []domain.Match
	for _, u := range e.units {
		if !sameLangs(u.srcLang, u.tgtLang, srcLang, tgtLang) {
			continue
		}
		score := similarity.Score(needle, fold(u.sourceText))
		if score < minSimilarity {
			continue
		}
		matches = append(matches, u.match(e.name, score))
	}
	domain.SortMatches(matches)
	return matches
}

func newUnit(source, target domain.Content, srcLang, tgtLang string, tags map[string]string) unit {
	text := source.PlainText()
	return unit{
		key:        strings.ToLower(srcLang) + "\x00" + strings.ToLower(tgtLang) + "\x00" + text,
		source:     source,
		target:     target,
		sourceText: text,
		srcLang:    srcLang,
		tgtLang:    tgtLang,
		tags:       tags,
	}
}

func (u unit) match(origin string, score int) domain.Match {
	data := make(map[string]string, len(u.tags))
	for k, v := range u.tags {
		data[k] = v
	}
	return domain.Match{
		Origin:       origin,
		Type:         domain.MatchTM,
		Similarity:   score,
		Source:       u.source.Clone(),
		Target:       u.target.Clone(),
		OriginalData: data,
	}
}

// folder returns the identity for case-sensitive searches and Unicode
// case folding otherwise. A Caser is stateful, so each call gets its own.
func folder(caseSensitive bool) func(string) string {
	if caseSensitive {
		return func(s string) string { return s }
	}
	c := cases.Fold()
	return c.String
}

func sameLangs(srcA, tgtA, srcB, tgtB string) bool {
	return strings.EqualFold(srcA, srcB) && strings.EqualFold(tgtA, tgtB)
}
