// Package store persists finished pitch packages in SQLite. Summary
// columns are denormalized for listing; the full package travels as a
// JSON payload.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pitchforge/internal/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// Store manages pitch package persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ pipeline.PackageSaver = (*Store)(nil)

// Open initializes or connects to the packages database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// SavePackage inserts or replaces a package keyed by its job id.
func (s *Store) SavePackage(ctx context.Context, pkg *pipeline.PitchPackage) error {
	if pkg == nil {
		return errors.New("package is nil")
	}
	if pkg.ID == "" {
		return errors.New("package id is empty")
	}
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshal package: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO packages (id, title, filename, created_at, quality, payload)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             title = excluded.title,
             filename = excluded.filename,
             created_at = excluded.created_at,
             quality = excluded.quality,
             payload = excluded.payload`,
		pkg.ID,
		pkg.Title,
		pkg.Filename,
		pkg.CreatedAt.UTC().Format(time.RFC3339Nano),
		pkg.Quality,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// GetPackage fetches a full package by id. Missing ids return nil, nil.
func (s *Store) GetPackage(ctx context.Context, id string) (*pipeline.PitchPackage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM packages WHERE id = ?`, id)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get package: %w", err)
	}

	var pkg pipeline.PitchPackage
	if err := json.Unmarshal([]byte(payload), &pkg); err != nil {
		return nil, fmt.Errorf("decode package %s: %w", id, err)
	}
	return &pkg, nil
}

// PackageSummary is one listing row, without the heavy payload.
type PackageSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	Quality   int       `json:"quality_score"`
}

// ListPackages returns summaries of all stored packages, newest first.
func (s *Store) ListPackages(ctx context.Context) ([]PackageSummary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, filename, created_at, quality FROM packages ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	summaries := []PackageSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// DeletePackage removes a package by id and reports whether it existed.
func (s *Store) DeletePackage(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete package: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of stored packages.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM packages`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count packages: %w", err)
	}
	return count, nil
}

func scanSummary(scanner interface{ Scan(dest ...any) error }) (PackageSummary, error) {
	var (
		summary PackageSummary
		created string
	)
	if err := scanner.Scan(&summary.ID, &summary.Title, &summary.Filename, &created, &summary.Quality); err != nil {
		return PackageSummary{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		summary.CreatedAt = t
	}
	return summary, nil
}
