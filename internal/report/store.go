// Package report persists analysis run history. The CLI records one
// row per analyzed unit plus its diagnostics, so regressions in a
// codebase's lifecycle health are visible across runs.
package report

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vesper-lang/vesper/internal/diagnostic"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for analysis run reports. SQLite with
// WAL mode; a single writer connection avoids SQLITE_BUSY under
// concurrent watch-mode runs.
type Store struct {
	db *sql.DB
}

// Run is one recorded analysis of a compilation unit. Dump holds the
// annotation dump produced by the run, so a stored run can be compared
// against a later one without re-analyzing.
type Run struct {
	ID          string
	Unit        string
	LangVersion string
	StartedAt   time.Time
	Duration    time.Duration
	Procedures  int
	Errors      int
	Warnings    int
	Dump        string
}

// RecordedDiagnostic is a diagnostic row as stored, with the source
// span flattened to its rendered location.
type RecordedDiagnostic struct {
	Code     string
	Level    string
	Message  string
	TypeName string
	Location string
}

// Open creates or opens the report database at path. Pragmas and the
// schema are applied on every open; the call is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to report database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply report schema: %w", err)
	}
	return &Store{db: db}, nil
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
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// RecordRun stores one analysis run with its diagnostics and returns
// the generated run ID. The run and its diagnostics commit atomically.
func (s *Store) RecordRun(ctx context.Context, run Run, diags []diagnostic.Diagnostic) (string, error) {
	id := uuid.NewString()

	errors, warnings := 0, 0
	for _, d := range diags {
		switch d.Level {
		case diagnostic.LevelError:
			errors++
		case diagnostic.LevelWarning:
			warnings++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin report transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, unit, lang_version, started_at, duration_ms, procedures, errors, warnings, dump)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Unit, run.LangVersion, run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(), run.Procedures, errors, warnings, run.Dump,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, d := range diags {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, ord, code, level, message, type_name, location)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, string(d.Code), d.Level.String(), d.Message, d.TypeName, d.Span.String(),
		)
		if err != nil {
			return "", fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit report: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero
// or less returns everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `
		SELECT id, unit, lang_version, started_at, duration_ms, procedures, errors, warnings, dump
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var durMS int64
		if err := rows.Scan(&r.ID, &r.Unit, &r.LangVersion, &started, &durMS, &r.Procedures, &r.Errors, &r.Warnings, &r.Dump); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", started, err)
		}
		r.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunDiagnostics returns the diagnostics of one run in report order.
func (s *Store) RunDiagnostics(ctx context.Context, runID string) ([]RecordedDiagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, level, message, type_name, location
		FROM diagnostics WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []RecordedDiagnostic
	for rows.Next() {
		var d RecordedDiagnostic
		if err := rows.Scan(&d.Code, &d.Level, &d.Message, &d.TypeName, &d.Location); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
