package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
)

const (
	insertFile = `INSERT OR IGNORE INTO files (id, name) VALUES (?, ?)`
	insertUnit = `INSERT OR REPLACE INTO units (file, unitId, data, compressed) VALUES (?, ?, ?, ?)`
	insertTerm = `INSERT OR IGNORE INTO terms (file, unitId, segId, termId, origin, source, target)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertNote = `INSERT OR REPLACE INTO notes (file, unitId, segId, noteId, note) VALUES (?, ?, ?, ?, ?)`
)

// batch is a bulk load that commits every commitEvery rows.
type batch struct {
	ctx         context.Context
	db          *sql.DB
	commitEvery int

	tx      *sql.Tx
	stmts   map[string]*sql.Stmt
	pending int
}

var _ driven.Batch = (*batch)(nil)

// NewBatch starts a bulk load. A commitEvery of zero or less commits only
// when Commit is called.
func (r *segmentRepository) NewBatch(ctx context.Context, commitEvery int) (driven.Batch, error) {
	b := &batch{ctx: ctx, db: r.store.db, commitEvery: commitEvery}
	if err := b.begin(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *batch) begin() error {
	tx, err := b.db.BeginTx(b.ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch: %w", err)
	}
	b.tx = tx
	b.stmts = make(map[string]*sql.Stmt)
	b.pending = 0
	return nil
}

// exec runs query through a statement prepared once per transaction.
func (b *batch) exec(query string, args ...any) error {
	if b.tx == nil {
		return fmt.Errorf("batch: %w", domain.ErrStoreClosed)
	}
	stmt, ok := b.stmts[query]
	if !ok {
		var err error
		if stmt, err = b.tx.PrepareContext(b.ctx, query); err != nil {
			return fmt.Errorf("preparing batch statement: %w", err)
		}
		b.stmts[query] = stmt
	}
	if _, err := stmt.ExecContext(b.ctx, args...); err != nil {
		return err
	}
	b.pending++
	if b.commitEvery > 0 && b.pending >= b.commitEvery {
		if err := b.commit(); err != nil {
			return err
		}
		return b.begin()
	}
	return nil
}

func (b *batch) commit() error {
	for _, stmt := range b.stmts {
		stmt.Close()
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// AddFile stores a file.
func (b *batch) AddFile(f domain.File) error {
	if err := b.exec(insertFile, f.ID, f.Name); err != nil {
		return fmt.Errorf("adding file %s: %w", f.ID, err)
	}
	return nil
}

// AddUnit stores a unit and its inline-tag table.
func (b *batch) AddUnit(u domain.Unit) error {
	blob, compressed, err := encodeData(u.Data)
	if err != nil {
		return err
	}
	if err := b.exec(insertUnit, u.File, u.ID, blob, boolInt(compressed)); err != nil {
		return fmt.Errorf("adding unit %s/%s: %w", u.File, u.ID, err)
	}
	return nil
}

// AddSegment stores a segment or ignorable.
func (b *batch) AddSegment(s domain.Segment) error {
	if err := b.exec(insertSegment, segmentArgs(&s)...); err != nil {
		return fmt.Errorf("adding segment %s: %w", s.SegmentKey, err)
	}
	return nil
}

// AddMatch stores a match found in the document.
func (b *batch) AddMatch(m domain.Match) error {
	if b.tx == nil {
		return fmt.Errorf("batch: %w", domain.ErrStoreClosed)
	}
	if err := saveMatch(b.ctx, b.tx, &m); err != nil {
		return err
	}
	b.pending++
	return nil
}

// AddTerm stores a term found in the document.
func (b *batch) AddTerm(t domain.Term) error {
	if err := b.exec(insertTerm, t.File, t.Unit, t.Segment, t.ID, t.Origin, t.Source, t.Target); err != nil {
		return fmt.Errorf("adding term %s: %w", t.ID, err)
	}
	return nil
}

// AddNote stores a note found in the document.
func (b *batch) AddNote(n domain.Note) error {
	if err := b.exec(insertNote, n.File, n.Unit, n.Segment, n.ID, n.Text); err != nil {
		return fmt.Errorf("adding note %d: %w", n.ID, err)
	}
	return nil
}

// Commit commits the rows added since the last periodic commit and ends
// the batch.
func (b *batch) Commit() error {
	if b.tx == nil {
		return nil
	}
	return b.commit()
}

// Rollback discards the rows added since the last periodic commit and
// ends the batch.
func (b *batch) Rollback() error {
	if b.tx == nil {
		return nil
	}
	for _, stmt := range b.stmts {
		stmt.Close()
	}
	tx := b.tx
	b.tx = nil
	return tx.Rollback()
}
