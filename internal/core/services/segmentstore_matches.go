package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rmraya/swordfish-core/internal/assembly"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/logger"
)

// assemblyCandidates is the similarity memory matches need to be tried
// by the assembler.
const assemblyCandidates = 60

// unconfirmed selects the segments bulk translation works on.
var unconfirmed = driven.SegmentFilter{
	States:       []domain.State{domain.StateInitial, domain.StateTranslated},
	UnlockedOnly: true,
}

// ==================== Matches ====================

// Matches returns the stored matches of a segment with their tags
// remapped onto the segment source.
func (s *SegmentStore) Matches(ctx context.Context, key domain.SegmentKey) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seg, err := s.repo.Segment(ctx, key)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.Matches(ctx, key)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		live(&matches[i], seg)
	}
	return matches, nil
}

// live remaps the tags of a match onto the source of seg.
func live(m *domain.Match, seg *domain.Segment) {
	source := m.Source
	m.Source = remapTags(source, source, seg.Source)
	m.Target = remapTags(source, m.Target, seg.Source)
}

// RemoveMatches deletes the matches of a segment.
func (s *SegmentStore) RemoveMatches(ctx context.Context, key domain.SegmentKey, origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.repo.Segment(ctx, key); err != nil {
		return err
	}
	return s.repo.DeleteMatches(ctx, key, origin)
}

// adjust applies the batch penalties to a memory match: a flat
// penalization and a penalty per inline code the match has more or fewer
// of than the segment.
func (s *SegmentStore) adjust(m *domain.Match, seg *domain.Segment) {
	diff := m.Source.TagCount() - seg.Tags
	if diff < 0 {
		diff = -diff
	}
	m.Similarity = max(m.Similarity-s.settings.Penalization-s.settings.TagPenalty*diff, 0)
}

// store attaches a memory match to seg and saves it.
func (s *SegmentStore) store(ctx context.Context, m *domain.Match, seg *domain.Segment) error {
	m.SegmentKey = seg.SegmentKey
	if m.Type == "" {
		m.Type = domain.MatchTM
	}
	m.ID = matchID(m.Origin, m.Source.PlainText())
	return s.repo.SaveMatch(ctx, m)
}

// TMTranslate searches a memory for one segment and stores the hits.
func (s *SegmentStore) TMTranslate(ctx context.Context, key domain.SegmentKey, memory string, similarity int) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seg, err := s.repo.Segment(ctx, key)
	if err != nil {
		return nil, err
	}
	engine, err := s.engine(memory)
	if err != nil {
		return nil, err
	}
	matches, err := engine.SearchTranslation(ctx, seg.SourceText, s.srcLang, s.tgtLang, similarity, false)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", memory, err)
	}

	for i := range matches {
		s.adjust(&matches[i], seg)
		if err := s.store(ctx, &matches[i], seg); err != nil {
			return nil, err
		}
		live(&matches[i], seg)
	}
	domain.SortMatches(matches)
	return matches, nil
}

// TMTranslateAll batch-translates every unconfirmed, unlocked segment.
// The store is locked one batch at a time. Segments that fail are logged
// and skipped; their errors are joined into the result.
func (s *SegmentStore) TMTranslateAll(ctx context.Context, memory string, similarity int, progress driving.ProgressFunc) error {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	engine, err := s.engine(memory)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	segs, err := s.repo.Segments(ctx, unconfirmed)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	size := s.settings.BatchSize
	if size <= 0 {
		size = domain.DefaultBatchSize
	}

	var errs []error
	for start := 0; start < len(segs); start += size {
		batch := segs[start:min(start+size, len(segs))]
		if err := s.translateBatch(ctx, engine, batch, similarity); err != nil {
			errs = append(errs, err)
		}
		report(progress, start+len(batch), len(segs))
	}
	if len(segs) == 0 {
		report(progress, 1, 1)
	}
	return errors.Join(errs...)
}

func (s *SegmentStore) translateBatch(ctx context.Context, engine driven.TranslationEngine, batch []domain.Segment, similarity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	reqs := make([]domain.TranslationRequest, len(batch))
	for i, seg := range batch {
		reqs[i] = domain.TranslationRequest{Key: seg.SegmentKey, Text: seg.SourceText, Tags: seg.Tags}
	}
	results, err := engine.BatchTranslate(ctx, reqs, s.srcLang, s.tgtLang, similarity)
	if err != nil {
		logger.Warn("batch of %d segments from %s skipped: %v", len(batch), batch[0].SegmentKey, err)
		return fmt.Errorf("batch at %s: %w", batch[0].SegmentKey, err)
	}

	var errs []error
	for i := range batch {
		if err := s.applyMatches(ctx, &batch[i], results[batch[i].SegmentKey]); err != nil {
			logger.Skipped(batch[i].SegmentKey, err)
			errs = append(errs, fmt.Errorf("segment %s: %w", batch[i].SegmentKey, err))
		}
	}
	return errors.Join(errs...)
}

// applyMatches stores the batch matches of one segment and fills its
// target from a perfect match when it is still empty.
func (s *SegmentStore) applyMatches(ctx context.Context, seg *domain.Segment, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		s.adjust(&matches[i], seg)
		if err := s.store(ctx, &matches[i], seg); err != nil {
			return err
		}
	}

	best, ok := domain.BestMatch(matches)
	if !ok || best.Similarity < 100 {
		return nil
	}
	current, err := s.repo.Segment(ctx, seg.SegmentKey)
	if err != nil {
		return err
	}
	if current.TargetText != "" || !current.Translate {
		return nil
	}
	state := domain.StateTranslated
	if s.settings.AutoConfirm {
		state = domain.StateFinal
	}
	current.SetTarget(remapTags(best.Source, best.Target, current.Source), state)
	return s.repo.SaveSegment(ctx, current)
}

func report(progress driving.ProgressFunc, done, total int) {
	if progress != nil && total > 0 {
		progress(100 * float64(done) / float64(total))
	}
}

// ==================== Assembly ====================

// AssembleMatches synthesizes a match for one segment from the memory and
// the glossary, stores it and returns it. It returns nil when nothing
// could be assembled.
func (s *SegmentStore) AssembleMatches(ctx context.Context, key domain.SegmentKey, memory, glossary string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seg, err := s.repo.Segment(ctx, key)
	if err != nil {
		return nil, err
	}
	mem, gls, err := s.assemblyEngines(memory, glossary)
	if err != nil {
		return nil, err
	}
	m, err := s.assemble(ctx, seg, mem, gls)
	if err != nil || m == nil {
		return nil, err
	}
	live(m, seg)
	return m, nil
}

// AssembleMatchesAll synthesizes matches for every unconfirmed, unlocked
// segment. Segments that fail are logged and skipped.
func (s *SegmentStore) AssembleMatchesAll(ctx context.Context, memory, glossary string, progress driving.ProgressFunc) error {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	mem, gls, err := s.assemblyEngines(memory, glossary)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	segs, err := s.repo.Segments(ctx, unconfirmed)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	var errs []error
	assembled := 0
	for i := range segs {
		m, err := s.assembleLocked(ctx, &segs[i], mem, gls)
		if err != nil {
			logger.Skipped(segs[i].SegmentKey, err)
			errs = append(errs, fmt.Errorf("segment %s: %w", segs[i].SegmentKey, err))
		} else if m != nil {
			assembled++
		}
		report(progress, i+1, len(segs))
	}
	if len(segs) == 0 {
		report(progress, 1, 1)
	}
	logger.Info("Assembled %d matches for %d segments", assembled, len(segs))
	return errors.Join(errs...)
}

func (s *SegmentStore) assembleLocked(ctx context.Context, seg *domain.Segment, mem, gls driven.TranslationEngine) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.assemble(ctx, seg, mem, gls)
}

func (s *SegmentStore) assemblyEngines(memory, glossary string) (driven.TranslationEngine, driven.TranslationEngine, error) {
	mem, err := s.engine(memory)
	if err != nil {
		return nil, nil, err
	}
	gls, err := s.engine(glossary)
	if err != nil {
		return nil, nil, err
	}
	return mem, gls, nil
}

// assemble runs the assembler for seg and stores the result.
func (s *SegmentStore) assemble(ctx context.Context, seg *domain.Segment, mem, gls driven.TranslationEngine) (*domain.Match, error) {
	if strings.TrimSpace(seg.SourceText) == "" {
		return nil, nil
	}
	candidates, err := mem.SearchTranslation(ctx, seg.SourceText, s.srcLang, s.tgtLang, assemblyCandidates, false)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", mem.Name(), err)
	}

	asm := assembly.New(s.differ, s.scorer, gls, s.srcLang, s.tgtLang)
	m, ok, err := asm.Assemble(ctx, seg.SourceText, candidates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	m.SegmentKey = seg.SegmentKey
	m.Origin = domain.OriginAuto
	m.Type = domain.MatchAM
	m.ID = matchID(domain.OriginAuto, m.Source.PlainText())
	if err := s.repo.SaveMatch(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ==================== Terms ====================

// Terms returns the glossary hits of a segment.
func (s *SegmentStore) Terms(ctx context.Context, key domain.SegmentKey) ([]domain.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.repo.Segment(ctx, key); err != nil {
		return nil, err
	}
	return s.repo.Terms(ctx, key)
}

// SearchTerms looks up every phrase of a segment in a glossary, stores
// the new hits and returns all hits of the segment.
func (s *SegmentStore) SearchTerms(ctx context.Context, key domain.SegmentKey, glossary string) ([]domain.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seg, err := s.repo.Segment(ctx, key)
	if err != nil {
		return nil, err
	}
	gls, err := s.engine(glossary)
	if err != nil {
		return nil, err
	}

	asm := assembly.New(s.differ, s.scorer, gls, s.srcLang, s.tgtLang)
	terms, err := asm.SearchTerms(ctx, seg.SourceText)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", glossary, err)
	}
	for i := range terms {
		t := &terms[i]
		t.SegmentKey = key
		if t.Origin == "" {
			t.Origin = gls.Name()
		}
		t.ID = termID(t.Origin, t.Source)
		if _, err := s.repo.SaveTerm(ctx, t); err != nil {
			return nil, err
		}
	}
	return s.repo.Terms(ctx, key)
}

// ==================== Notes ====================

// Notes returns the notes of a segment.
func (s *SegmentStore) Notes(ctx context.Context, key domain.SegmentKey) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.repo.Segment(ctx, key); err != nil {
		return nil, err
	}
	return s.repo.Notes(ctx, key)
}

// AddNote appends a note to a segment and returns its id.
func (s *SegmentStore) AddNote(ctx context.Context, key domain.SegmentKey, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("empty note: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	if _, err := s.repo.Segment(ctx, key); err != nil {
		return 0, err
	}
	return s.repo.AddNote(ctx, key, text)
}

// RemoveNote deletes a note.
func (s *SegmentStore) RemoveNote(ctx context.Context, key domain.SegmentKey, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.repo.Segment(ctx, key); err != nil {
		return err
	}
	return s.repo.RemoveNote(ctx, key, id)
}
