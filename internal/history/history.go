// Package history records tool invocations (validators, captures,
// skills, orchestration runs) in a local SQLite database so past
// outcomes survive restarts and can be queried from the CLI.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one recorded tool invocation.
type Record struct {
	ID         int64     `json:"id"`
	Tool       string    `json:"tool"`
	Target     string    `json:"target,omitempty"`
	Project    string    `json:"project,omitempty"`
	Outcome    string    `json:"outcome"`
	Score      float64   `json:"score,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Outcomes.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	tool        TEXT NOT NULL,
	target      TEXT NOT NULL DEFAULT '',
	project     TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	score       REAL NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_tool ON runs(tool);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one invocation record and fills in its ID and CreatedAt.
func (s *Store) Record(rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT INTO runs (tool, target, project, outcome, score, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Tool, rec.Target, rec.Project, rec.Outcome, rec.Score, rec.DurationMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

// List returns the most recent records, newest first. tool filters by
// tool name when non-empty; limit <= 0 means a default of 50.
func (s *Store) List(tool string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, tool, target, project, outcome, score, duration_ms, created_at
	          FROM runs`
	args := []any{}
	if tool != "" {
		query += ` WHERE tool = ?`
		args = append(args, tool)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Tool, &rec.Target, &rec.Project,
			&rec.Outcome, &rec.Score, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summary aggregates outcome counts per tool.
type Summary struct {
	Tool   string `json:"tool"`
	Total  int    `json:"total"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
}

// Summarize returns per-tool outcome counts across all records.
func (s *Store) Summarize() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT tool,
		        COUNT(*),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		 FROM runs GROUP BY tool ORDER BY tool`,
		OutcomePassed, OutcomeFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize history: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Tool, &sum.Total, &sum.Passed, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
