// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records the outcome of every processed row in a SQLite
// database so past downloads can be listed with `gleam-vo history`.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gleam-vo/pkg/types"
)

const defaultLimit = 50

// Entry is one recorded row outcome.
type Entry struct {
	BatchID    string        `json:"batch_id" yaml:"batch_id"`
	Service    types.Service `json:"service" yaml:"service"`
	RecordedAt time.Time     `json:"recorded_at" yaml:"recorded_at"`

	types.RowReport `yaml:",inline"`
}

// Store manages the ledger database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the ledger at cfg.Path, creating its parent
// directory and schema when missing.
func NewStore(cfg types.LedgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS row_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			service TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			frequency TEXT,
			locator TEXT NOT NULL,
			url TEXT,
			outcome TEXT NOT NULL,
			path TEXT,
			bytes INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_row_outcomes_batch_id ON row_outcomes(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_row_outcomes_path ON row_outcomes(path)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one row outcome. It satisfies cutout.Recorder.
func (s *Store) Record(ctx context.Context, batchID string, service types.Service, row types.RowReport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO row_outcomes (batch_id, service, recorded_at, frequency, locator, url, outcome, path, bytes, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, string(service), s.now().Format(time.RFC3339Nano),
		row.Frequency, row.Locator, row.URL, string(row.Outcome), row.Path, row.Bytes, row.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting row %s: %w", row.Locator, err)
	}
	return nil
}

// QueryOptions filters List.
type QueryOptions struct {
	BatchID string
	Service types.Service
	Outcome types.Outcome

	// Limit caps the number of entries; defaultLimit when zero.
	Limit int
}

// List returns recorded entries, most recent first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	query := `SELECT batch_id, service, recorded_at, frequency, locator, url, outcome, path, bytes, error
		FROM row_outcomes WHERE 1=1`
	var args []any
	if opts.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, opts.BatchID)
	}
	if opts.Service != "" {
		query += ` AND service = ?`
		args = append(args, string(opts.Service))
	}
	if opts.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(opts.Outcome))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                          Entry
			service, recorded, outcome string
			freq, url, path, errMsg    sql.NullString
			bytes                      sql.NullInt64
		)
		if err := rows.Scan(&e.BatchID, &service, &recorded, &freq, &e.Locator, &url, &outcome, &path, &bytes, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		e.Service = types.Service(service)
		e.Outcome = types.Outcome(outcome)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		e.Frequency = freq.String
		e.URL = url.String
		e.Path = path.String
		e.Bytes = bytes.Int64
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExportYAML writes entries to w as a YAML sequence.
func ExportYAML(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
