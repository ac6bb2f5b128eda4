// Package store keeps parsed documents in SQLite, keyed by document number.
// Every write carries a revision; a write whose revision does not match the
// stored one fails with ErrConflict.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/stdpapers/listing"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrConflict   = errors.New("document update conflict")
	ErrNoDatabase = errors.New("database does not exist")
	ErrNoNumber   = errors.New("document has no number")
)

// Record is a stored document with its revision.
type Record struct {
	ID        string
	Rev       string
	Doc       listing.Doc
	UpdatedAt time.Time
}

// Store manages documents using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at dsn. A missing database file is an error
// unless create is set.
func Open(dsn string, create bool) (*Store, error) {
	if !create && isFilePath(dsn) {
		if _, err := os.Stat(dsn); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDatabase, dsn)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection, so ":memory:" databases are shared and writes are
	// serialized.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// initSchema creates the documents table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		rev TEXT NOT NULL,
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves a document by number.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := "SELECT id, rev, body, updated_at FROM documents WHERE id = ?"

	var rec Record
	var body, updatedAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Rev, &body, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	if err := json.Unmarshal([]byte(body), &rec.Doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	rec.UpdatedAt = parseTime(updatedAt)

	return &rec, nil
}

// Put writes rec and returns its new revision. A record without Rev is
// created and conflicts if the number is taken; a record with Rev replaces
// the stored one only if the stored revision still equals Rev.
func (s *Store) Put(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		return "", ErrNoNumber
	}

	body, err := json.Marshal(rec.Doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	rev := nextRev(rec.Rev)
	now := time.Now()

	if rec.Rev == "" {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO documents (id, rev, body, updated_at) VALUES (?, ?, ?, ?)",
			rec.ID, rev, string(body), formatTime(now))
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return "", fmt.Errorf("%w: %s", ErrConflict, rec.ID)
			}
			return "", fmt.Errorf("failed to insert document: %w", err)
		}
		return rev, nil
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE documents SET rev = ?, body = ?, updated_at = ? WHERE id = ? AND rev = ?",
		rev, string(body), formatTime(now), rec.ID, rec.Rev)
	if err != nil {
		return "", fmt.Errorf("failed to update document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return "", fmt.Errorf("%w: %s", ErrConflict, rec.ID)
	}

	return rev, nil
}

// List returns all stored documents ordered by number.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, rev, body, updated_at FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var body, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.Rev, &body, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(body), &rec.Doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", rec.ID, err)
		}
		rec.UpdatedAt = parseTime(updatedAt)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Reset deletes every document.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to reset documents: %w", err)
	}
	return nil
}

// nextRev returns the revision following prev: "<generation>-<random hex>".
func nextRev(prev string) string {
	generation := 1
	if n, _, ok := strings.Cut(prev, "-"); ok {
		if g, err := strconv.Atoi(n); err == nil {
			generation = g + 1
		}
	}
	return fmt.Sprintf("%d-%s", generation, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
