package services

import (
	"context"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
)

// AnalyzeSpaces lists the translated segments whose leading or trailing
// whitespace differs from their source.
func (s *SegmentStore) AnalyzeSpaces(ctx context.Context) ([]domain.SpaceIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	segs, err := s.repo.Segments(ctx, driven.SegmentFilter{Confirmable: true})
	if err != nil {
		return nil, err
	}
	var issues []domain.SpaceIssue
	for i := range segs {
		if issue, ok := spaceIssue(&segs[i]); ok {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// FixSpaces copies the outer whitespace of the source onto the target of
// every unlocked translated segment and returns how many changed.
func (s *SegmentStore) FixSpaces(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}

	return s.forEach(ctx, driven.SegmentFilter{Confirmable: true, UnlockedOnly: true}, func(seg *domain.Segment) bool {
		if _, ok := spaceIssue(seg); !ok {
			return false
		}
		fixed := fixSpaces(seg.Source, seg.Target)
		if fixed.Equal(seg.Target) {
			return false
		}
		seg.SetTarget(fixed, seg.State)
		return true
	})
}

// AnalyzeTags lists the translated segments whose target tags differ from
// their source tags.
func (s *SegmentStore) AnalyzeTags(ctx context.Context) ([]domain.TagIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	segs, err := s.repo.Segments(ctx, driven.SegmentFilter{Confirmable: true})
	if err != nil {
		return nil, err
	}
	var issues []domain.TagIssue
	for _, seg := range segs {
		if kind, ok := tagIssue(seg.Source, seg.Target); ok {
			issues = append(issues, domain.TagIssue{SegmentKey: seg.SegmentKey, Index: seg.Idx, Kind: kind})
		}
	}
	return issues, nil
}
