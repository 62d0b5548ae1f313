package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/logger"
	"github.com/rmraya/swordfish-core/internal/xliff"
)

// ==================== Structural edits ====================

// SplitSegment splits a segment at a character offset of its source. The
// document is rewritten and the rows of the unit are derived again.
func (s *SegmentStore) SplitSegment(ctx context.Context, key domain.SegmentKey, offset int) (string, error) {
	return s.restructure(ctx, key, func(unit, seg *xliff.Node) (string, error) {
		return xliff.SplitSegment(unit, seg, offset)
	})
}

// MergeSegment merges a segment into the preceding segment of its unit.
func (s *SegmentStore) MergeSegment(ctx context.Context, key domain.SegmentKey) (string, error) {
	return s.restructure(ctx, key, xliff.MergeSegment)
}

// restructure applies a structural edit to a copy of the unit holding key.
// Only when the edit succeeds is the copy swapped into the document and
// the rows of the unit replaced; later rows of the file move by the
// change in row count.
func (s *SegmentStore) restructure(ctx context.Context, key domain.SegmentKey, edit func(unit, seg *xliff.Node) (string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return "", err
	}

	if _, err := s.repo.Segment(ctx, key); err != nil {
		return "", err
	}
	doc, err := s.document()
	if err != nil {
		return "", err
	}
	file := doc.File(key.File)
	if file == nil {
		return "", fmt.Errorf("file %s: %w", key.File, domain.ErrNotFound)
	}
	unit := xliff.Unit(file, key.Unit)
	if unit == nil {
		return "", fmt.Errorf("unit %s/%s: %w", key.File, key.Unit, domain.ErrNotFound)
	}

	old, err := s.records(ctx, key.File, key.Unit)
	if err != nil {
		return "", err
	}
	p := s.prefixes(doc, old)

	work := unit.Clone()
	xliff.WriteUnit(work, old, p)
	el := xliff.FindSegment(work, key.Segment)
	if el == nil {
		return "", fmt.Errorf("segment %s: %w", key, domain.ErrNotFound)
	}
	id, err := edit(work, el)
	if err != nil {
		return "", err
	}

	recs := xliff.ReadUnit(key.File, work, p)
	base := old.Segments[0].Child
	if delta := len(recs.Segments) - len(old.Segments); delta != 0 {
		if err := s.repo.ShiftChildren(ctx, key.File, base+len(old.Segments), delta); err != nil {
			return "", err
		}
	}
	for i := range recs.Segments {
		recs.Segments[i].Child = base + i
		s.measure(&recs.Segments[i])
	}
	if err := s.repo.ReplaceUnitSegments(ctx, key.File, key.Unit, recs.Segments); err != nil {
		return "", err
	}
	if err := s.repo.Reindex(ctx); err != nil {
		return "", err
	}

	unit.Attrs, unit.Children = work.Attrs, work.Children
	if err := doc.Save(s.path); err != nil {
		return "", err
	}
	logger.Debug("Restructured %s/%s: %d -> %d rows", key.File, key.Unit, len(old.Segments), len(recs.Segments))
	return id, nil
}

// prefixes returns the module prefixes to write recs with, declaring the
// module namespaces only when recs need them.
func (s *SegmentStore) prefixes(doc *xliff.Document, recs xliff.UnitRecords) xliff.Prefixes {
	if len(recs.Matches) > 0 || len(recs.Terms) > 0 {
		return doc.Prefixes()
	}
	return doc.ReadPrefixes()
}

// ==================== Export ====================

// UpdateXliff folds the stored rows back into the document and saves it
// in place.
func (s *SegmentStore) UpdateXliff(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.update(ctx)
	return err
}

func (s *SegmentStore) update(ctx context.Context) (*xliff.Document, error) {
	doc, err := s.document()
	if err != nil {
		return nil, err
	}
	for _, file := range doc.Files() {
		fileID := file.Attr("id")
		for _, unit := range xliff.Units(file) {
			recs, err := s.records(ctx, fileID, unit.Attr("id"))
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			xliff.WriteUnit(unit, recs, s.prefixes(doc, recs))
		}
	}
	if err := doc.Save(s.path); err != nil {
		return nil, err
	}
	return doc, nil
}

// ExportXliff writes the updated document to path.
func (s *SegmentStore) ExportXliff(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	doc, err := s.update(ctx)
	if err != nil {
		return err
	}
	return doc.Save(path)
}

// ExportTranslations splits the updated document per original file,
// rejoining files that share an original, and has merger rebuild each one
// into dir under the original's relative path.
func (s *SegmentStore) ExportTranslations(ctx context.Context, dir string, merger driven.Merger) error {
	if merger == nil {
		return fmt.Errorf("no merger: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	doc, err := s.update(ctx)
	if err != nil {
		return err
	}
	parts, err := doc.SplitByOriginal()
	if err != nil {
		return err
	}
	outputs, err := exportPaths(dir, parts)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "swordfish-export-")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	for i, part := range parts {
		xlf := filepath.Join(tmp, strconv.Itoa(i)+".xlf")
		if err := part.Doc.Save(xlf); err != nil {
			return err
		}
		out := outputs[i]
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err := merger.Merge(ctx, xlf, out); err != nil {
			return fmt.Errorf("merging %s: %w", part.Original, err)
		}
		logger.Info("Exported %s", out)
	}
	return nil
}

// exportPaths maps each part to its output file under dir. Originals must
// be relative paths inside dir, and no two may name the same file.
func exportPaths(dir string, parts []xliff.Part) ([]string, error) {
	paths := make([]string, len(parts))
	seen := make(map[string]string, len(parts))
	for i, part := range parts {
		rel := filepath.Clean(filepath.FromSlash(part.Original))
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("original %q is not a relative path inside the output directory: %w", part.Original, domain.ErrInvalidInput)
		}
		if prev, ok := seen[rel]; ok {
			return nil, fmt.Errorf("originals %q and %q export to the same file %s: %w", prev, part.Original, rel, domain.ErrInvalidInput)
		}
		seen[rel] = part.Original
		paths[i] = filepath.Join(dir, rel)
	}
	return paths, nil
}
