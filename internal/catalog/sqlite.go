// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/persistence/sqlite"
)

const backendSQLite = "sqlite"

var migrations = []string{
	`CREATE TABLE lessons (
		ref        TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		path       TEXT NOT NULL DEFAULT '',
		pages      INTEGER NOT NULL DEFAULT 1,
		license    TEXT NOT NULL DEFAULT '',
		indexed_at INTEGER NOT NULL
	)`,
}

// SQLiteCatalog is a persistent lesson index.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the index at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteCatalog, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteCatalog{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteCatalog) Path() string { return s.path }

func (s *SQLiteCatalog) Close() error { return s.db.Close() }

// Replace swaps the whole index for lessons in one transaction.
func (s *SQLiteCatalog) Replace(ctx context.Context, lessons []Lesson) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons`); err != nil {
		return fmt.Errorf("catalog: clear index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lessons (ref, title, path, pages, license, indexed_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, l := range lessons {
		if _, err := stmt.ExecContext(ctx, l.Ref, l.Title, l.Path, l.Pages, l.License, now); err != nil {
			return fmt.Errorf("catalog: insert %s: %w", l.Ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}

	metrics.RecordCatalogSize(backendSQLite, len(lessons))
	logger := log.WithComponent("catalog")
	logger.Info().
		Str(log.FieldEvent, "catalog.indexed").
		Str(log.FieldPath, s.path).
		Int("lessons", len(lessons)).
		Msg("lesson index replaced")
	return nil
}

func (s *SQLiteCatalog) Lookup(ctx context.Context, ref string) (Lesson, bool, error) {
	var l Lesson
	err := s.db.QueryRowContext(ctx,
		`SELECT ref, title, path, pages, license FROM lessons WHERE ref = ?`, ref).
		Scan(&l.Ref, &l.Title, &l.Path, &l.Pages, &l.License)
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, false, nil
	}
	if err != nil {
		return Lesson{}, false, fmt.Errorf("catalog: lookup %s: %w", ref, err)
	}
	return l, true, nil
}

func (s *SQLiteCatalog) List(ctx context.Context) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, title, path, pages, license FROM lessons ORDER BY ref`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.Ref, &l.Title, &l.Path, &l.Pages, &l.License); err != nil {
			return nil, fmt.Errorf("catalog: scan row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Index scans root and replaces the index with its lessons.
func (s *SQLiteCatalog) Index(ctx context.Context, root string) (int, error) {
	lessons, err := Scan(ctx, root)
	if err != nil {
		return 0, err
	}
	if err := s.Replace(ctx, lessons); err != nil {
		return 0, err
	}
	return len(lessons), nil
}

// Verify runs an integrity check on the index file.
func (s *SQLiteCatalog) Verify(ctx context.Context, full bool) ([]string, error) {
	mode := "quick"
	if full {
		mode = "full"
	}
	return sqlite.VerifyIntegrity(ctx, s.path, mode)
}
