package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/time/rate"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/logger"
	"github.com/rmraya/swordfish-core/internal/similarity"
	"github.com/rmraya/swordfish-core/internal/worddiff"
	"github.com/rmraya/swordfish-core/internal/xliff"
)

// Ensure SegmentStore implements the interface.
var _ driving.SegmentService = (*SegmentStore)(nil)

// Memory pushes are throttled to this many units per second.
const (
	pushRate  = 20
	pushBurst = 5
)

// SegmentStore is the segment store of one bilingual document. It owns
// the repository for the lifetime of the document; every operation runs
// under the store mutex.
type SegmentStore struct {
	repo     driven.SegmentRepository
	engines  driven.EngineRegistry
	settings domain.StoreSettings
	differ   *worddiff.Differ
	scorer   similarity.Scorer
	limiter  *rate.Limiter

	mu      sync.Mutex
	path    string
	doc     *xliff.Document
	srcLang string
	tgtLang string
	opened  bool
	closed  bool

	pushes sync.WaitGroup
}

// NewSegmentStore creates a store over repo. Engines are looked up in
// the registry by the ids callers pass to memory operations.
func NewSegmentStore(repo driven.SegmentRepository, engines driven.EngineRegistry, settings domain.StoreSettings) *SegmentStore {
	return &SegmentStore{
		repo:     repo,
		engines:  engines,
		settings: settings,
		differ:   worddiff.New(settings.Separators),
		scorer:   similarity.LCS{},
		limiter:  rate.NewLimiter(rate.Limit(pushRate), pushBurst),
	}
}

// ==================== Lifecycle ====================

// Open materializes the document at path into the repository, or reopens
// an already materialized store without parsing the document.
func (s *SegmentStore) Open(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}
	if s.opened {
		return fmt.Errorf("store already open on %s: %w", s.path, domain.ErrInvalidInput)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	done, err := s.repo.IsMaterialized(ctx)
	if err != nil {
		return fmt.Errorf("checking store: %w", err)
	}

	if !done {
		logger.Section("Open")
		if err := s.discardPartial(ctx); err != nil {
			return err
		}
		logger.Info("Materializing %s", abs)
		doc, err := xliff.Load(abs)
		if err != nil {
			return err
		}
		if err := s.materialize(ctx, doc); err != nil {
			return err
		}
		s.doc = doc
		s.srcLang, s.tgtLang = doc.SrcLang(), doc.TgtLang()
	} else {
		src, tgt, err := xliff.ReadLanguages(abs)
		if err != nil {
			return err
		}
		s.srcLang, s.tgtLang = src, tgt
		logger.Debug("Reopened store for %s", abs)
	}

	s.path = abs
	s.opened = true
	return nil
}

// materialize loads every record of doc through one periodically
// committed batch and indexes the segments.
func (s *SegmentStore) materialize(ctx context.Context, doc *xliff.Document) error {
	batch, err := s.repo.NewBatch(ctx, s.settings.CommitEvery)
	if err != nil {
		return fmt.Errorf("starting bulk load: %w", err)
	}

	if err := s.load(doc, batch); err != nil {
		if rbErr := batch.Rollback(); rbErr != nil {
			logger.Warn("rolling back bulk load: %v", rbErr)
		}
		return fmt.Errorf("loading document: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("committing bulk load: %w", err)
	}
	if err := s.repo.Reindex(ctx); err != nil {
		return err
	}
	return s.repo.MarkMaterialized(ctx)
}

// discardPartial clears the rows an interrupted bulk load committed.
func (s *SegmentStore) discardPartial(ctx context.Context) error {
	empty, err := s.repo.IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("checking store: %w", err)
	}
	if empty {
		return nil
	}
	logger.Warn("Discarding incomplete store")
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("discarding incomplete store: %w", err)
	}
	return nil
}

func (s *SegmentStore) load(doc *xliff.Document, batch driven.Batch) error {
	p := doc.ReadPrefixes()
	segments := 0
	for _, file := range doc.Files() {
		fileID := file.Attr("id")
		name := file.Attr("original")
		if name == "" {
			name = fileID
		}
		if err := batch.AddFile(domain.File{ID: fileID, Name: name}); err != nil {
			return err
		}

		child := 0
		for _, unit := range xliff.Units(file) {
			recs := xliff.ReadUnit(fileID, unit, p)
			if err := batch.AddUnit(recs.Unit); err != nil {
				return err
			}
			for i := range recs.Segments {
				seg := &recs.Segments[i]
				seg.Child = child
				child++
				s.measure(seg)
				if err := batch.AddSegment(*seg); err != nil {
					return err
				}
				segments++
			}
			for _, m := range recs.Matches {
				if m.ID == "" {
					m.ID = matchID(m.Origin, m.Source.PlainText())
				}
				if err := batch.AddMatch(m); err != nil {
					return err
				}
			}
			for _, t := range recs.Terms {
				if t.ID == "" {
					t.ID = termID(t.Origin, t.Source)
				}
				if err := batch.AddTerm(t); err != nil {
					return err
				}
			}
			for _, n := range recs.Notes {
				if err := batch.AddNote(n); err != nil {
					return err
				}
			}
		}
	}
	logger.Info("Loaded %d rows from %d files", segments, len(doc.Files()))
	return nil
}

// measure computes the word and character counts of the source text.
func (s *SegmentStore) measure(seg *domain.Segment) {
	seg.Words = len(s.differ.Words(seg.SourceText))
	seg.Chars = utf8.RuneCountInString(seg.SourceText)
}

// Close waits for pending memory pushes and closes the repository.
func (s *SegmentStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.pushes.Wait()
	return s.repo.Close()
}

// ready reports whether the store can serve requests. Callers hold mu.
func (s *SegmentStore) ready() error {
	if s.closed {
		return domain.ErrStoreClosed
	}
	if !s.opened {
		return fmt.Errorf("no document open: %w", domain.ErrStoreClosed)
	}
	return nil
}

// document returns the parsed document, loading it on first use.
func (s *SegmentStore) document() (*xliff.Document, error) {
	if s.doc == nil {
		doc, err := xliff.Load(s.path)
		if err != nil {
			return nil, err
		}
		s.doc = doc
	}
	return s.doc, nil
}

// Languages returns the source and target languages of the document.
func (s *SegmentStore) Languages() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srcLang, s.tgtLang
}

// ==================== Queries ====================

// Segment returns a stored segment.
func (s *SegmentStore) Segment(ctx context.Context, key domain.SegmentKey) (*domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.Segment(ctx, key)
}

// Query returns a filtered, sorted page of rendered rows.
func (s *SegmentStore) Query(ctx context.Context, q domain.SegmentQuery) ([]domain.SegmentRow, error) {
	match, err := textFilter(q)
	if err != nil {
		return nil, err
	}
	if !q.Sort.IsValid() {
		return nil, fmt.Errorf("unknown sort key %q: %w", q.Sort, domain.ErrInvalidInput)
	}
	for _, st := range q.States {
		if !st.IsValid() {
			return nil, fmt.Errorf("unknown state %q: %w", st, domain.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	segs, err := s.repo.Segments(ctx, driven.SegmentFilter{
		States:     q.States,
		Sort:       q.Sort,
		Descending: q.Descending,
	})
	if err != nil {
		return nil, err
	}

	filtered := segs[:0]
	for _, seg := range segs {
		text := seg.SourceText
		if q.Language == domain.FilterTarget {
			text = seg.TargetText
		}
		if match(text) {
			filtered = append(filtered, seg)
		}
	}

	start := min(max(q.Start, 0), len(filtered))
	end := len(filtered)
	if q.Count > 0 {
		end = min(start+q.Count, end)
	}

	rows := make([]domain.SegmentRow, 0, end-start)
	for i := range filtered[start:end] {
		row, err := s.row(ctx, &filtered[start+i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SegmentStore) row(ctx context.Context, seg *domain.Segment) (domain.SegmentRow, error) {
	matches, err := s.repo.Matches(ctx, seg.SegmentKey)
	if err != nil {
		return domain.SegmentRow{}, err
	}
	r := newRenderer()
	row := domain.SegmentRow{
		File:      seg.File,
		Unit:      seg.Unit,
		Segment:   seg.Segment,
		Index:     seg.Idx,
		State:     seg.State,
		Translate: seg.Translate,
		Preserve:  seg.Space,
		Source:    r.render(seg.Source),
		Target:    r.render(seg.Target),
	}
	if best, ok := domain.BestMatch(matches); ok {
		row.Match = best.Similarity
	}
	if seg.Confirmable() {
		_, row.TagErrors = tagIssue(seg.Source, seg.Target)
		_, row.SpaceErrors = spaceIssue(seg)
	}
	return row, nil
}

// textFilter compiles the text filter of a query into a predicate.
func textFilter(q domain.SegmentQuery) (func(string) bool, error) {
	switch q.Language {
	case "", domain.FilterSource, domain.FilterTarget:
	default:
		return nil, fmt.Errorf("unknown filter language %q: %w", q.Language, domain.ErrInvalidInput)
	}
	if q.Filter == "" {
		return func(string) bool { return true }, nil
	}

	if q.Regex {
		pattern := q.Filter
		if !q.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed filter expression: %v", domain.ErrInvalidInput, err)
		}
		return re.MatchString, nil
	}

	if q.CaseSensitive {
		return func(text string) bool { return strings.Contains(text, q.Filter) }, nil
	}
	fold := cases.Fold()
	needle := fold.String(q.Filter)
	return func(text string) bool { return strings.Contains(fold.String(text), needle) }, nil
}

// Statistics summarises the store.
func (s *SegmentStore) Statistics(ctx context.Context) (*domain.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.Statistics(ctx)
}

// ==================== Helpers ====================

// records collects the stored rows of one unit.
func (s *SegmentStore) records(ctx context.Context, file, unit string) (xliff.UnitRecords, error) {
	var recs xliff.UnitRecords

	u, err := s.repo.Unit(ctx, file, unit)
	if err != nil {
		return recs, err
	}
	recs.Unit = *u

	if recs.Segments, err = s.repo.UnitSegments(ctx, file, unit); err != nil {
		return recs, err
	}
	key := domain.SegmentKey{File: file, Unit: unit}
	if recs.Matches, err = s.repo.Matches(ctx, key); err != nil {
		return recs, err
	}
	if recs.Terms, err = s.repo.Terms(ctx, key); err != nil {
		return recs, err
	}
	if recs.Notes, err = s.repo.Notes(ctx, key); err != nil {
		return recs, err
	}
	return recs, nil
}

// engine returns a registered memory or glossary.
func (s *SegmentStore) engine(id string) (driven.TranslationEngine, error) {
	if s.engines == nil || id == "" {
		return nil, fmt.Errorf("engine %q: %w", id, domain.ErrEngineUnavailable)
	}
	return s.engines.Get(id)
}

// forEach applies fn to every segment selected by filter and saves the
// ones fn reports as changed.
func (s *SegmentStore) forEach(ctx context.Context, filter driven.SegmentFilter, fn func(seg *domain.Segment) bool) (int, error) {
	segs, err := s.repo.Segments(ctx, filter)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range segs {
		if !fn(&segs[i]) {
			continue
		}
		if err := s.repo.SaveSegment(ctx, &segs[i]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// usedData returns the entries of data referenced by the tags of contents.
func usedData(data map[string]string, contents ...domain.Content) map[string]string {
	out := make(map[string]string)
	for _, c := range contents {
		for _, r := range c.Tags() {
			for _, name := range []string{"dataRef", "dataRefStart", "dataRefEnd"} {
				if ref := r.Attr(name); ref != "" {
					if v, ok := data[ref]; ok {
						out[ref] = v
					}
				}
			}
		}
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
