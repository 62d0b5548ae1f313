package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
)

// segmentRepository implements driven.SegmentRepository.
type segmentRepository struct {
	store *Store
}

var _ driven.SegmentRepository = (*segmentRepository)(nil)

const segmentColumns = `file, unitId, segId, type, state, child, translate, tags, space,
	source, sourceText, target, targetText, words, chars, idx`

// IsEmpty reports whether no file has been stored yet.
func (r *segmentRepository) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return false, fmt.Errorf("counting files: %w", err)
	}
	return n == 0, nil
}

// materializedKey marks a completed bulk load in store_meta.
const materializedKey = "materialized"

// IsMaterialized reports whether a bulk load completed.
func (r *segmentRepository) IsMaterialized(ctx context.Context) (bool, error) {
	var n int
	err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM store_meta WHERE key = ?", materializedKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("reading store mark: %w", err)
	}
	return n > 0, nil
}

// MarkMaterialized records the completion time of the bulk load.
func (r *segmentRepository) MarkMaterialized(ctx context.Context) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO store_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, materializedKey, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("marking store: %w", err)
	}
	return nil
}

// Clear deletes every row of the six document tables and the mark.
func (r *segmentRepository) Clear(ctx context.Context) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"store_meta", "notes", "terms", "matches", "segments", "units", "files"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// Close closes the underlying store.
func (r *segmentRepository) Close() error {
	return r.store.Close()
}

// ==================== Files and Units ====================

// Files returns the files in insertion order.
func (r *segmentRepository) Files(ctx context.Context) ([]domain.File, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT id, name FROM files ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []domain.File //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// Unit retrieves a unit and its inline-tag table.
func (r *segmentRepository) Unit(ctx context.Context, file, unit string) (*domain.Unit, error) {
	var blob []byte
	var compressed bool
	err := r.store.db.QueryRowContext(ctx,
		"SELECT data, compressed FROM units WHERE file = ? AND unitId = ?", file, unit,
	).Scan(&blob, &compressed)
	if err != nil {
		return nil, notFound(err, "unit "+file+"/"+unit)
	}
	data, err := decodeData(blob, compressed)
	if err != nil {
		return nil, err
	}
	return &domain.Unit{File: file, ID: unit, Data: data}, nil
}

// SaveUnit replaces the inline-tag table of a unit.
func (r *segmentRepository) SaveUnit(ctx context.Context, unit *domain.Unit) error {
	if unit == nil {
		return domain.ErrInvalidInput
	}
	blob, compressed, err := encodeData(unit.Data)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO units (file, unitId, data, compressed) VALUES (?, ?, ?, ?)
		ON CONFLICT(file, unitId) DO UPDATE SET
			data = excluded.data,
			compressed = excluded.compressed
	`, unit.File, unit.ID, blob, boolInt(compressed))
	if err != nil {
		return fmt.Errorf("saving unit: %w", err)
	}
	return nil
}

// ==================== Segments ====================

// Segment retrieves a translatable segment.
func (r *segmentRepository) Segment(ctx context.Context, key domain.SegmentKey) (*domain.Segment, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+segmentColumns+`
		FROM segments WHERE file = ? AND unitId = ? AND segId = ? AND type = 'S'
	`, key.File, key.Unit, key.Segment)

	seg, err := scanSegment(row)
	if err != nil {
		return nil, notFound(err, "segment "+key.String())
	}
	return seg, nil
}

// SegmentAt retrieves the translatable segment with the given index.
func (r *segmentRepository) SegmentAt(ctx context.Context, idx int) (*domain.Segment, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+segmentColumns+`
		FROM segments WHERE idx = ? AND type = 'S'
	`, idx)

	seg, err := scanSegment(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("segment #%d", idx))
	}
	return seg, nil
}

// UnitSegments returns every row of a unit in document order.
func (r *segmentRepository) UnitSegments(ctx context.Context, file, unit string) ([]domain.Segment, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT `+segmentColumns+`
		FROM segments WHERE file = ? AND unitId = ? ORDER BY child
	`, file, unit)
	if err != nil {
		return nil, fmt.Errorf("querying unit segments: %w", err)
	}
	return collectSegments(rows)
}

// Segments returns segments matching the filter.
func (r *segmentRepository) Segments(ctx context.Context, f driven.SegmentFilter) ([]domain.Segment, error) {
	var where []string
	var args []any
	if !f.Ignorables || f.Confirmable {
		where = append(where, "s.type = 'S'")
	}
	if len(f.States) > 0 {
		marks := make([]string, len(f.States))
		for i, st := range f.States {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "s.state IN ("+strings.Join(marks, ", ")+")")
	}
	if f.UnlockedOnly {
		where = append(where, "s.translate = 1")
	}
	if f.Confirmable {
		where = append(where, "s.targetText <> ''")
	}

	query := `SELECT ` + prefixed("s.", segmentColumns) + `
		FROM segments s
		LEFT JOIN (SELECT id, MIN(rowid) AS rank FROM files GROUP BY id) fl ON fl.id = s.file`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + segmentOrder(f.Sort, f.Descending)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	return collectSegments(rows)
}

func segmentOrder(key domain.SortKey, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	document := "COALESCE(fl.rank, 0), s.child"
	switch key {
	case domain.SortSource:
		return "s.sourceText COLLATE NOCASE " + dir + ", " + document
	case domain.SortTarget:
		return "s.targetText COLLATE NOCASE " + dir + ", " + document
	case domain.SortState:
		return `CASE s.state WHEN 'initial' THEN 0 WHEN 'translated' THEN 1 ELSE 2 END ` + dir + ", " + document
	default:
		if desc {
			return "COALESCE(fl.rank, 0) DESC, s.child DESC"
		}
		return document
	}
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// SaveSegment updates the mutable columns of a segment.
func (r *segmentRepository) SaveSegment(ctx context.Context, seg *domain.Segment) error {
	if seg == nil {
		return domain.ErrInvalidInput
	}
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE segments SET
			state = ?, translate = ?, tags = ?, source = ?, sourceText = ?,
			target = ?, targetText = ?, words = ?, chars = ?
		WHERE file = ? AND unitId = ? AND segId = ? AND type = ?
	`, string(seg.State), boolInt(seg.Translate), seg.Tags,
		encodeContent("source", seg.Source), seg.SourceText,
		encodeContent("target", seg.Target), seg.TargetText, seg.Words, seg.Chars,
		seg.File, seg.Unit, seg.Segment, string(seg.Type))
	if err != nil {
		return fmt.Errorf("saving segment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("segment %s: %w", seg.SegmentKey, domain.ErrNotFound)
	}
	return nil
}

// ReplaceUnitSegments deletes every row of a unit and inserts segs. Matches,
// terms and notes of segments that no longer exist are removed too.
func (r *segmentRepository) ReplaceUnitSegments(ctx context.Context, file, unit string, segs []domain.Segment) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE file = ? AND unitId = ?", file, unit); err != nil {
			return fmt.Errorf("deleting unit segments: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, insertSegment)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		keep := make([]any, 0, len(segs))
		for i := range segs {
			if _, err := stmt.ExecContext(ctx, segmentArgs(&segs[i])...); err != nil {
				return fmt.Errorf("inserting segment: %w", err)
			}
			keep = append(keep, segs[i].Segment)
		}

		for _, table := range []string{"matches", "terms", "notes"} {
			query := "DELETE FROM " + table + " WHERE file = ? AND unitId = ?"
			args := []any{file, unit}
			if len(keep) > 0 {
				query += " AND segId NOT IN (?" + strings.Repeat(", ?", len(keep)-1) + ")"
				args = append(args, keep...)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("deleting orphaned %s: %w", table, err)
			}
		}
		return nil
	})
}

// ShiftChildren moves the document order of the tail of a file.
func (r *segmentRepository) ShiftChildren(ctx context.Context, file string, from, delta int) error {
	_, err := r.store.db.ExecContext(ctx,
		"UPDATE segments SET child = child + ? WHERE file = ? AND child >= ?", delta, file, from)
	if err != nil {
		return fmt.Errorf("shifting children: %w", err)
	}
	return nil
}

// Reindex assigns dense display indexes, starting at 1, to translatable
// segments ordered by file then child. Ignorables get 0.
func (r *segmentRepository) Reindex(ctx context.Context) error {
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE segments SET idx = 0 WHERE type = 'I'"); err != nil {
			return fmt.Errorf("clearing ignorable indexes: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE segments SET idx = ranked.n
			FROM (
				SELECT s.file AS f, s.unitId AS u, s.segId AS g,
					ROW_NUMBER() OVER (ORDER BY COALESCE(fl.rank, 0), s.child) AS n
				FROM segments s
				LEFT JOIN (SELECT id, MIN(rowid) AS rank FROM files GROUP BY id) fl ON fl.id = s.file
				WHERE s.type = 'S'
			) AS ranked
			WHERE segments.file = ranked.f AND segments.unitId = ranked.u
				AND segments.segId = ranked.g AND segments.type = 'S'
		`)
		if err != nil {
			return fmt.Errorf("indexing segments: %w", err)
		}
		return nil
	})
}

// SetTranslateAll locks or unlocks every segment.
func (r *segmentRepository) SetTranslateAll(ctx context.Context, translate bool) error {
	if _, err := r.store.db.ExecContext(ctx, "UPDATE segments SET translate = ?", boolInt(translate)); err != nil {
		return fmt.Errorf("updating translate flags: %w", err)
	}
	return nil
}

// Statistics counts translatable segments. Locked segments only count
// towards Segments and Locked.
func (r *segmentRepository) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var st domain.Statistics
	err := r.store.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN translate = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 AND state = 'initial' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 AND state = 'translated' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 AND state = 'final' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 THEN words ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 THEN chars ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 AND state = 'initial' THEN words ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 AND state = 'translated' THEN words ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN translate = 1 AND state = 'final' THEN words ELSE 0 END), 0)
		FROM segments WHERE type = 'S'
	`).Scan(&st.Segments, &st.Locked, &st.Untranslated, &st.Translated, &st.Confirmed,
		&st.Words, &st.Chars, &st.UntranslatedWords, &st.TranslatedWords, &st.ConfirmedWords)
	if err != nil {
		return nil, fmt.Errorf("computing statistics: %w", err)
	}
	return &st, nil
}

// ==================== Scanning ====================

const insertSegment = `INSERT INTO segments (` + segmentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func segmentArgs(s *domain.Segment) []any {
	return []any{
		s.File, s.Unit, s.Segment, string(s.Type), string(s.State), s.Child,
		boolInt(s.Translate), s.Tags, boolInt(s.Space),
		encodeContent("source", s.Source), s.SourceText,
		encodeContent("target", s.Target), s.TargetText,
		s.Words, s.Chars, s.Idx,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSegment(row scanner) (*domain.Segment, error) {
	var s domain.Segment
	var typ, state, source, target string
	if err := row.Scan(&s.File, &s.Unit, &s.Segment, &typ, &state, &s.Child,
		&s.Translate, &s.Tags, &s.Space, &source, &s.SourceText, &target, &s.TargetText,
		&s.Words, &s.Chars, &s.Idx); err != nil {
		return nil, err
	}
	s.Type = domain.SegmentType(typ)
	s.State = domain.State(state)

	var err error
	if s.Source, err = decodeContent(source); err != nil {
		return nil, fmt.Errorf("segment %s source: %w", s.SegmentKey, err)
	}
	if s.Target, err = decodeContent(target); err != nil {
		return nil, fmt.Errorf("segment %s target: %w", s.SegmentKey, err)
	}
	return &s, nil
}

func collectSegments(rows *sql.Rows) ([]domain.Segment, error) {
	defer rows.Close()

	var segs []domain.Segment //nolint:prealloc // size unknown from query
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segs = append(segs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}
	return segs, nil
}
