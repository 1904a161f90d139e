// Package db provides the persistence layer used by the application. It
// wraps a SQLite database and records tool invocations so operators can
// inspect recent usage through the history endpoint. Callers open a single
// DB instance with New and reuse it for all operations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not exist
// it is created along with the required schema.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tool TEXT NOT NULL,
			success INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations(created_at)`,
	}
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// Invocation is one recorded tool call.
type Invocation struct {
	Tool      string    `json:"tool"`
	Success   bool      `json:"success"`
	Duration  int64     `json:"duration_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// ToolCount aggregates invocations per tool.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// RecordInvocation stores one tool call outcome. Failures to record are
// returned to the caller but should not abort the tool response.
func (db *DB) RecordInvocation(ctx context.Context, tool string, success bool, duration time.Duration) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO invocations(tool, success, duration_ms, created_at) VALUES(?, ?, ?, ?)`,
		tool, success, duration.Milliseconds(), time.Now().UTC())
	return err
}

// RecentInvocations returns the newest invocations up to limit, most recent
// first. A non-positive limit defaults to 20.
func (db *DB) RecentInvocations(ctx context.Context, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		`SELECT tool, success, duration_ms, created_at FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invocation
	for rows.Next() {
		var inv Invocation
		if err := rows.Scan(&inv.Tool, &inv.Success, &inv.Duration, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ToolCountsSince aggregates invocation counts per tool starting at since,
// ordered by count descending.
func (db *DB) ToolCountsSince(ctx context.Context, since time.Time) ([]ToolCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tool, COUNT(*) FROM invocations WHERE created_at >= ? GROUP BY tool ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ToolCount
	for rows.Next() {
		var tc ToolCount
		if err := rows.Scan(&tc.Tool, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
