package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/logger"
	"github.com/rmraya/swordfish-core/internal/xliff"
)

// ==================== Translation edits ====================

// SaveSegment stores a translation. Confirming a new or changed
// translation propagates it to similar segments and, when a memory is
// given, pushes it to that memory in the background.
func (s *SegmentStore) SaveSegment(ctx context.Context, req driving.SaveRequest) (*domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seg, err := s.repo.Segment(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	target, err := segmentRenderer(seg).parse(req.Target)
	if err != nil {
		return nil, err
	}

	var memory driven.TranslationEngine
	if req.Confirm && req.Memory != "" {
		if memory, err = s.engine(req.Memory); err != nil {
			return nil, err
		}
	}

	wasFinal := seg.State == domain.StateFinal
	previous := seg.Target
	state := domain.StateTranslated
	if req.Confirm {
		state = domain.StateFinal
	}
	seg.SetTarget(target, state)
	if err := s.repo.SaveSegment(ctx, seg); err != nil {
		return nil, err
	}

	if !req.Confirm || seg.TargetText == "" {
		return seg, nil
	}
	if !wasFinal || !previous.Equal(seg.Target) {
		if err := s.propagate(ctx, seg); err != nil {
			return nil, err
		}
	}
	if memory != nil {
		if err := s.push(ctx, memory, seg); err != nil {
			return nil, err
		}
	}
	return seg, nil
}

// propagate records a same-document match on every unconfirmed, unlocked
// segment whose source is similar enough to the source of seg, and fills
// the untranslated ones whose source is identical.
func (s *SegmentStore) propagate(ctx context.Context, seg *domain.Segment) error {
	candidates, err := s.repo.Segments(ctx, driven.SegmentFilter{
		States:       []domain.State{domain.StateInitial, domain.StateTranslated},
		UnlockedOnly: true,
	})
	if err != nil {
		return err
	}

	unit, err := s.repo.Unit(ctx, seg.File, seg.Unit)
	if err != nil {
		return err
	}
	data := usedData(unit.Data, seg.Source, seg.Target)
	source := seg.Source.DummyText()
	id := matchID(domain.OriginSelf, seg.SourceText)

	applied := 0
	for i := range candidates {
		c := &candidates[i]
		if c.SegmentKey == seg.SegmentKey {
			continue
		}
		score := s.scorer.Similarity(source, c.Source.DummyText())
		if score <= s.settings.PropagationThreshold {
			continue
		}

		m := &domain.Match{
			SegmentKey:   c.SegmentKey,
			ID:           id,
			Origin:       domain.OriginSelf,
			Type:         domain.MatchTM,
			Similarity:   score,
			Source:       seg.Source.Clone(),
			Target:       seg.Target.Clone(),
			OriginalData: data,
		}
		if err := s.repo.SaveMatch(ctx, m); err != nil {
			return err
		}

		if score < 100 || c.State != domain.StateInitial {
			continue
		}
		state := domain.StateTranslated
		if s.settings.AutoConfirm {
			state = domain.StateFinal
		}
		c.SetTarget(remapTags(seg.Source, seg.Target, c.Source), state)
		if err := s.repo.SaveSegment(ctx, c); err != nil {
			return err
		}
		applied++
	}
	if applied > 0 {
		logger.Debug("Propagated %s to %d segments", seg.SegmentKey, applied)
	}
	return nil
}

// push sends a confirmed segment to a memory without blocking the caller.
// Failures are logged; the save has already succeeded.
func (s *SegmentStore) push(ctx context.Context, memory driven.TranslationEngine, seg *domain.Segment) error {
	unit, err := s.repo.Unit(ctx, seg.File, seg.Unit)
	if err != nil {
		return err
	}

	tu := &domain.TranslationUnit{
		Key:     seg.SegmentKey,
		Source:  seg.Source.Clone(),
		Target:  seg.Target.Clone(),
		SrcLang: s.srcLang,
		TgtLang: s.tgtLang,
		Tags:    xliff.TagDictionary(append(seg.Source.Clone(), seg.Target...), unit.Data),
	}
	if tu.Previous, err = s.neighbour(ctx, seg.Idx-1); err != nil {
		return err
	}
	if tu.Next, err = s.neighbour(ctx, seg.Idx+1); err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	s.pushes.Add(1)
	go func() {
		defer s.pushes.Done()
		if err := s.limiter.Wait(bg); err != nil {
			logger.Error("pushing %s to %s: %v", tu.Key, memory.Name(), err)
			return
		}
		if err := memory.StoreUnit(bg, tu); err != nil {
			logger.Error("pushing %s to %s: %v", tu.Key, memory.Name(), err)
			return
		}
		if err := memory.Commit(bg); err != nil {
			logger.Error("committing %s to %s: %v", tu.Key, memory.Name(), err)
		}
	}()
	return nil
}

// neighbour returns the key of the segment at idx, or "" past the edges.
func (s *SegmentStore) neighbour(ctx context.Context, idx int) (string, error) {
	if idx < 1 {
		return "", nil
	}
	seg, err := s.repo.SegmentAt(ctx, idx)
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return seg.SegmentKey.String(), nil
}

// SaveSource replaces the source of a segment. Tags may only be moved or
// removed; the target and state are left alone.
func (s *SegmentStore) SaveSource(ctx context.Context, key domain.SegmentKey, source string) (*domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seg, err := s.repo.Segment(ctx, key)
	if err != nil {
		return nil, err
	}
	content, err := segmentRenderer(seg).parse(source)
	if err != nil {
		return nil, err
	}
	if content.IsEmpty() {
		return nil, fmt.Errorf("empty source for %s: %w", key, domain.ErrInvalidInput)
	}

	seg.Source = content
	seg.SourceText = content.PlainText()
	seg.Tags = content.TagCount()
	s.measure(seg)
	if err := s.repo.SaveSegment(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// ==================== Locks ====================

// LockSegment locks or unlocks one segment.
func (s *SegmentStore) LockSegment(ctx context.Context, key domain.SegmentKey, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	seg, err := s.repo.Segment(ctx, key)
	if err != nil {
		return err
	}
	if seg.Translate == !locked {
		return nil
	}
	seg.Translate = !locked
	return s.repo.SaveSegment(ctx, seg)
}

// LockDuplicates locks every segment whose source repeats an earlier one
// in document order.
func (s *SegmentStore) LockDuplicates(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	return s.forEach(ctx, driven.SegmentFilter{}, func(seg *domain.Segment) bool {
		source := xliff.ContentXML("source", seg.Source)
		if !seen[source] {
			seen[source] = true
			return false
		}
		if !seg.Translate {
			return false
		}
		seg.Translate = false
		return true
	})
}

// UnlockAll unlocks every segment.
func (s *SegmentStore) UnlockAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.repo.SetTranslateAll(ctx, true)
}

// ==================== Bulk edits ====================

// ConfirmAll confirms every unlocked translated segment.
func (s *SegmentStore) ConfirmAll(ctx context.Context) (int, error) {
	return s.bulk(ctx, domain.StateTranslated, func(seg *domain.Segment) bool {
		seg.State = domain.StateFinal
		return true
	})
}

// UnconfirmAll returns every unlocked confirmed segment to translated.
func (s *SegmentStore) UnconfirmAll(ctx context.Context) (int, error) {
	return s.bulk(ctx, domain.StateFinal, func(seg *domain.Segment) bool {
		seg.State = domain.StateTranslated
		return true
	})
}

// RemoveTranslations clears every unlocked, unconfirmed target.
func (s *SegmentStore) RemoveTranslations(ctx context.Context) (int, error) {
	return s.bulk(ctx, domain.StateTranslated, func(seg *domain.Segment) bool {
		seg.SetTarget(nil, domain.StateInitial)
		return true
	})
}

// CopySources copies the source into every unlocked, empty target.
func (s *SegmentStore) CopySources(ctx context.Context) (int, error) {
	return s.bulk(ctx, domain.StateInitial, func(seg *domain.Segment) bool {
		if seg.Source.IsEmpty() {
			return false
		}
		seg.SetTarget(seg.Source.Clone(), domain.StateTranslated)
		return true
	})
}

func (s *SegmentStore) bulk(ctx context.Context, state domain.State, fn func(seg *domain.Segment) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.forEach(ctx, driven.SegmentFilter{
		States:       []domain.State{state},
		UnlockedOnly: true,
	}, fn)
}

// ReplaceText replaces text in the targets of unlocked segments. Only text
// runs are searched, so a match never spans an inline tag.
func (s *SegmentStore) ReplaceText(ctx context.Context, req driving.ReplaceRequest) (int, error) {
	if req.Search == "" {
		return 0, fmt.Errorf("empty search text: %w", domain.ErrInvalidInput)
	}
	pattern := req.Search
	if !req.Regex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if !req.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed search expression: %v", domain.ErrInvalidInput, err)
	}
	replace := re.ReplaceAllLiteralString
	if req.Regex {
		replace = re.ReplaceAllString
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}

	return s.forEach(ctx, driven.SegmentFilter{UnlockedOnly: true, Confirmable: true}, func(seg *domain.Segment) bool {
		target := seg.Target.Clone()
		for i := range target {
			if target[i].Kind == domain.TextRun {
				target[i].Text = replace(target[i].Text, req.Replace)
			}
		}
		if target.Equal(seg.Target) {
			return false
		}
		seg.SetTarget(target, seg.State)
		return true
	})
}
