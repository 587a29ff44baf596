// Package store keeps every victim post ever fetched in SQLite, deduplicated
// on (group_name, discovered).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS victims (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	group_name TEXT NOT NULL,
	discovered TEXT NOT NULL,
	UNIQUE(group_name, discovered)
)`

// Store is a SQLite-backed set of raw events.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and ensures the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Join(fmt.Errorf("creating schema: %w", err), db.Close())
	}
	logger.Debug("store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds events, ignoring ones already stored, and returns how many were new.
func (s *Store) Insert(ctx context.Context, events []activity.RawEvent) (inserted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Debug("rollback failed", "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO victims (group_name, discovered) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			s.logger.Debug("failed to close statement", "error", closeErr)
		}
	}()

	for _, e := range events {
		res, err := stmt.ExecContext(ctx, e.Group, e.Discovered)
		if err != nil {
			return 0, fmt.Errorf("inserting %s/%s: %w", e.Group, e.Discovered, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	s.logger.Debug("stored events", "offered", len(events), "inserted", inserted)
	return inserted, nil
}

// All returns every stored event in insertion order.
func (s *Store) All(ctx context.Context) ([]activity.RawEvent, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT group_name, discovered FROM victims ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying victims: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Debug("failed to close rows", "error", err)
		}
	}()

	var events []activity.RawEvent
	for rows.Next() {
		var e activity.RawEvent
		if err := rows.Scan(&e.Group, &e.Discovered); err != nil {
			return nil, fmt.Errorf("scanning victim: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating victims: %w", err)
	}
	return events, nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM victims").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting victims: %w", err)
	}
	return n, nil
}
