package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/ir"
)

// ErrNotFound is returned when a run or property does not exist.
var ErrNotFound = errors.New("not found")

// Run is one compilation of a specification source.
type Run struct {
	ID            string
	Seq           int64
	Source        string
	FormatVersion string
}

// PropertyRecord is a property as stored in a run.
type PropertyRecord struct {
	RunID         string
	Index         int
	ID            string // content ID, see ir.PropertyID
	Name          string // metadata id, may be empty
	Text          string
	CanonicalJSON string
}

// CanonicalFormRecord is one canonical form of a stored property.
type CanonicalFormRecord struct {
	PropertyID    string
	Index         int
	Text          string
	CanonicalJSON string
}

// BeginRun starts a new run. Runs are ordered by a logical sequence
// number, one above the latest run.
func (s *Store) BeginRun(ctx context.Context, source string) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&last); err != nil {
		return Run{}, fmt.Errorf("begin run: last seq: %w", err)
	}

	run := Run{ID: s.ids.Generate(), Seq: last + 1, Source: source, FormatVersion: ir.FormatVersion}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, source, format_version)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Seq, run.Source, run.FormatVersion)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("begin run: commit: %w", err)
	}

	s.log.WithFields(logrus.Fields{"run": run.ID, "seq": run.Seq, "source": source}).Debug("run started")
	return run, nil
}

// PutProperty stores p as the index-th property of a run. Writing the same
// slot twice is a no-op.
func (s *Store) PutProperty(ctx context.Context, runID string, index int, p *ast.Property) (PropertyRecord, error) {
	id, err := ir.PropertyID(p)
	if err != nil {
		return PropertyRecord{}, fmt.Errorf("put property: %w", err)
	}
	canonical, err := ir.MarshalCanonical(ir.FromProperty(p))
	if err != nil {
		return PropertyRecord{}, fmt.Errorf("put property: %w", err)
	}

	rec := PropertyRecord{
		RunID:         runID,
		Index:         index,
		ID:            id,
		Name:          p.Metadata.ID,
		Text:          p.String(),
		CanonicalJSON: string(canonical),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO properties (run_id, source_index, property_id, name, text, canonical_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, source_index) DO NOTHING
	`, rec.RunID, rec.Index, rec.ID, rec.Name, rec.Text, rec.CanonicalJSON)
	if err != nil {
		return PropertyRecord{}, fmt.Errorf("put property: %w", err)
	}

	s.log.WithFields(logrus.Fields{"run": runID, "index": index, "property": id[:12]}).Debug("property stored")
	return rec, nil
}

// PutCanonicalForms stores the canonical forms of a property. Forms are
// content addressed, so storing them again for an equal property is a
// no-op.
func (s *Store) PutCanonicalForms(ctx context.Context, propertyID string, forms []*ast.Property) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put canonical forms: %w", err)
	}
	defer tx.Rollback()

	for i, f := range forms {
		canonical, err := ir.MarshalCanonical(ir.FromProperty(f))
		if err != nil {
			return fmt.Errorf("put canonical forms: form %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO canonical_forms (property_id, idx, text, canonical_json)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(property_id, idx) DO NOTHING
		`, propertyID, i, f.String(), string(canonical))
		if err != nil {
			return fmt.Errorf("put canonical forms: form %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put canonical forms: commit: %w", err)
	}
	return nil
}

// GetProperty returns the most recent record of a property ID.
func (s *Store) GetProperty(ctx context.Context, propertyID string) (PropertyRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.run_id, p.source_index, p.property_id, p.name, p.text, p.canonical_json
		FROM properties p
		JOIN runs r ON r.id = p.run_id
		WHERE p.property_id = ?
		ORDER BY r.seq DESC, p.source_index ASC
		LIMIT 1
	`, propertyID)
	rec, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PropertyRecord{}, fmt.Errorf("property %s: %w", propertyID, ErrNotFound)
	}
	if err != nil {
		return PropertyRecord{}, fmt.Errorf("get property: %w", err)
	}
	return rec, nil
}

// ListProperties returns the properties of a run in source order.
// It returns an empty slice, not nil, for a run with no properties.
func (s *Store) ListProperties(ctx context.Context, runID string) ([]PropertyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source_index, property_id, name, text, canonical_json
		FROM properties
		WHERE run_id = ?
		ORDER BY source_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	records := []PropertyRecord{}
	for rows.Next() {
		rec, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("list properties: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return records, nil
}

// CanonicalForms returns the stored canonical forms of a property in order.
func (s *Store) CanonicalForms(ctx context.Context, propertyID string) ([]CanonicalFormRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT property_id, idx, text, canonical_json
		FROM canonical_forms
		WHERE property_id = ?
		ORDER BY idx ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("canonical forms: %w", err)
	}
	defer rows.Close()

	forms := []CanonicalFormRecord{}
	for rows.Next() {
		var f CanonicalFormRecord
		if err := rows.Scan(&f.PropertyID, &f.Index, &f.Text, &f.CanonicalJSON); err != nil {
			return nil, fmt.Errorf("canonical forms: %w", err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("canonical forms: %w", err)
	}
	return forms, nil
}

// LatestRun returns the run with the highest sequence number.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source, format_version
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&r.ID, &r.Seq, &r.Source, &r.FormatVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (PropertyRecord, error) {
	var rec PropertyRecord
	err := row.Scan(&rec.RunID, &rec.Index, &rec.ID, &rec.Name, &rec.Text, &rec.CanonicalJSON)
	return rec, err
}
