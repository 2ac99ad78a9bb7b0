package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/roach88/hpl/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty database
// 1 - runs, properties and canonical_forms
// 2 - properties.name column for metadata ids
const currentSchemaVersion = 2

// ErrIncompatibleFormat is returned by Open when the catalog was written
// with a serialization format of another major version.
var ErrIncompatibleFormat = errors.New("incompatible catalog format")

// Store is a SQLite property catalog.
type Store struct {
	db    *sql.DB
	log   logrus.FieldLogger
	ids   RunIDGenerator
}

// Option configures Open.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithRunIDs sets the run ID generator. The default is UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// Open creates or opens a catalog at path and checks that its format
// version is compatible with ir.FormatVersion.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Store{log: discard, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s.db = db

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := s.checkFormatVersion(); err != nil {
		db.Close()
		return nil, err
	}

	s.log.WithField("path", path).Debug("catalog opened")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) applySchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// Version 1 catalogs predate properties.name; add it before schema.sql
	// creates the index set on an up-to-date table.
	if version == 1 {
		if _, err := s.db.Exec(`ALTER TABLE properties ADD COLUMN name TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
		s.log.WithField("from", version).Info("catalog migrated")
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// checkFormatVersion records ir.FormatVersion in a new catalog and rejects
// an existing one whose major version differs.
func (s *Store) checkFormatVersion() error {
	current, err := semver.NewVersion(ir.FormatVersion)
	if err != nil {
		return fmt.Errorf("format version %q: %w", ir.FormatVersion, err)
	}

	var stored string
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'format_version'`).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.Exec(`INSERT INTO meta (key, value) VALUES ('format_version', ?)`, current.String())
		return err
	}
	if err != nil {
		return fmt.Errorf("read format version: %w", err)
	}

	constraint, err := semver.NewConstraint("^" + stored)
	if err != nil {
		return fmt.Errorf("stored format version %q: %w", stored, err)
	}
	if !constraint.Check(current) {
		return fmt.Errorf("%w: catalog has %s, this build writes %s", ErrIncompatibleFormat, stored, current)
	}
	s.log.WithFields(logrus.Fields{"stored": stored, "current": current.String()}).Debug("format version compatible")
	return nil
}

// FormatVersion returns the format version recorded in the catalog.
func (s *Store) FormatVersion(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'format_version'`).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("read format version: %w", err)
	}
	return v, nil
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
