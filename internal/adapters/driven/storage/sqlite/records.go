package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

// keyFilter returns the WHERE clause selecting a segment, or a whole unit
// when the key has no segment id.
func keyFilter(key domain.SegmentKey) (string, []any) {
	if key.Segment == "" {
		return "file = ? AND unitId = ?", []any{key.File, key.Unit}
	}
	return "file = ? AND unitId = ? AND segId = ?", []any{key.File, key.Unit, key.Segment}
}

// ==================== Matches ====================

// Matches returns the matches of a segment or unit, best first.
func (r *segmentRepository) Matches(ctx context.Context, key domain.SegmentKey) ([]domain.Match, error) {
	where, args := keyFilter(key)
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT file, unitId, segId, matchId, origin, type, similarity, source, target, data, compressed
		FROM matches WHERE `+where+`
		ORDER BY similarity DESC, origin, type
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match //nolint:prealloc // size unknown from query
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// SaveMatch inserts or replaces a match.
func (r *segmentRepository) SaveMatch(ctx context.Context, m *domain.Match) error {
	if m == nil || m.ID == "" {
		return domain.ErrInvalidInput
	}
	return saveMatch(ctx, r.store.db, m)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveMatch(ctx context.Context, db execer, m *domain.Match) error {
	blob, compressed, err := encodeData(m.OriginalData)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO matches (file, unitId, segId, matchId, origin, type, similarity, source, target, data, compressed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file, unitId, segId, matchId) DO UPDATE SET
			origin = excluded.origin,
			type = excluded.type,
			similarity = excluded.similarity,
			source = excluded.source,
			target = excluded.target,
			data = excluded.data,
			compressed = excluded.compressed
	`, m.File, m.Unit, m.Segment, m.ID, m.Origin, string(m.Type), m.Similarity,
		encodeContent("source", m.Source), encodeContent("target", m.Target), blob, boolInt(compressed))
	if err != nil {
		return fmt.Errorf("saving match: %w", err)
	}
	return nil
}

// DeleteMatches removes the matches of a segment or unit.
func (r *segmentRepository) DeleteMatches(ctx context.Context, key domain.SegmentKey, origin string) error {
	where, args := keyFilter(key)
	if origin != "" {
		where += " AND origin = ?"
		args = append(args, origin)
	}
	if _, err := r.store.db.ExecContext(ctx, "DELETE FROM matches WHERE "+where, args...); err != nil {
		return fmt.Errorf("deleting matches: %w", err)
	}
	return nil
}

func scanMatch(row scanner) (*domain.Match, error) {
	var m domain.Match
	var typ, source, target string
	var blob []byte
	var compressed bool
	if err := row.Scan(&m.File, &m.Unit, &m.Segment, &m.ID, &m.Origin, &typ, &m.Similarity,
		&source, &target, &blob, &compressed); err != nil {
		return nil, fmt.Errorf("scanning match: %w", err)
	}
	m.Type = domain.MatchType(typ)

	var err error
	if m.Source, err = decodeContent(source); err != nil {
		return nil, fmt.Errorf("match %s source: %w", m.ID, err)
	}
	if m.Target, err = decodeContent(target); err != nil {
		return nil, fmt.Errorf("match %s target: %w", m.ID, err)
	}
	if m.OriginalData, err = decodeData(blob, compressed); err != nil {
		return nil, err
	}
	return &m, nil
}

// ==================== Terms ====================

// Terms returns the glossary hits of a segment or unit.
func (r *segmentRepository) Terms(ctx context.Context, key domain.SegmentKey) ([]domain.Term, error) {
	where, args := keyFilter(key)
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT file, unitId, segId, termId, origin, source, target
		FROM terms WHERE `+where+` ORDER BY rowid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var terms []domain.Term //nolint:prealloc // size unknown from query
	for rows.Next() {
		var t domain.Term
		if err := rows.Scan(&t.File, &t.Unit, &t.Segment, &t.ID, &t.Origin, &t.Source, &t.Target); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating terms: %w", err)
	}
	return terms, nil
}

// SaveTerm inserts a term unless its key already exists.
func (r *segmentRepository) SaveTerm(ctx context.Context, t *domain.Term) (bool, error) {
	if t == nil || t.ID == "" {
		return false, domain.ErrInvalidInput
	}
	res, err := r.store.db.ExecContext(ctx, `
		INSERT INTO terms (file, unitId, segId, termId, origin, source, target)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file, unitId, segId, termId) DO NOTHING
	`, t.File, t.Unit, t.Segment, t.ID, t.Origin, t.Source, t.Target)
	if err != nil {
		return false, fmt.Errorf("saving term: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("saving term: %w", err)
	}
	return n > 0, nil
}

// ==================== Notes ====================

// Notes returns the notes of a segment or unit.
func (r *segmentRepository) Notes(ctx context.Context, key domain.SegmentKey) ([]domain.Note, error) {
	where, args := keyFilter(key)
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT file, unitId, segId, noteId, note
		FROM notes WHERE `+where+` ORDER BY rowid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note //nolint:prealloc // size unknown from query
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.File, &n.Unit, &n.Segment, &n.ID, &n.Text); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// AddNote appends a note to a segment and returns its id.
func (r *segmentRepository) AddNote(ctx context.Context, key domain.SegmentKey, text string) (int, error) {
	var id int
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(noteId), 0) + 1 FROM notes
			WHERE file = ? AND unitId = ? AND segId = ?
		`, key.File, key.Unit, key.Segment).Scan(&id)
		if err != nil {
			return fmt.Errorf("numbering note: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (file, unitId, segId, noteId, note) VALUES (?, ?, ?, ?, ?)
		`, key.File, key.Unit, key.Segment, id, text)
		if err != nil {
			return fmt.Errorf("saving note: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveNote deletes a note.
func (r *segmentRepository) RemoveNote(ctx context.Context, key domain.SegmentKey, id int) error {
	res, err := r.store.db.ExecContext(ctx, `
		DELETE FROM notes WHERE file = ? AND unitId = ? AND segId = ? AND noteId = ?
	`, key.File, key.Unit, key.Segment, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note %d of %s: %w", id, key, domain.ErrNotFound)
	}
	return nil
}
