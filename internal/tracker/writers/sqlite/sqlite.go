// Package sqlite stores run events in a per-run SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vk/labrig/internal/tracker"
)

// Writer mirrors the event stream into runs, hyperparams, and metrics tables.
type Writer struct {
	db   *sql.DB
	uuid string
}

// New opens (or creates) the database at path and ensures the schema exists.
func New(path string) (*Writer, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metrics database %s: %w", path, err)
	}
	return &Writer{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
	uuid TEXT PRIMARY KEY,
	experiment TEXT NOT NULL,
	comment TEXT,
	tags TEXT,
	started_at TEXT NOT NULL,
	status TEXT,
	status_step INTEGER
	);`,
		`CREATE TABLE IF NOT EXISTS hyperparams (
	run_uuid TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT,
	PRIMARY KEY (run_uuid, name)
	);`,
		`CREATE TABLE IF NOT EXISTS metrics (
	run_uuid TEXT NOT NULL,
	name TEXT NOT NULL,
	step INTEGER NOT NULL,
	value REAL NOT NULL
	);`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_name ON metrics(run_uuid, name, step);`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) Start(ctx context.Context, run tracker.Run) error {
	w.uuid = run.UUID

	tags := ""
	for i, tag := range run.Tags {
		if i > 0 {
			tags += ","
		}
		tags += tag
	}

	_, err := w.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (uuid, experiment, comment, tags, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.UUID, run.Experiment, run.Comment, tags, run.StartedAt.UTC().Format(time.RFC3339))
	return err
}

func (w *Writer) Hyperparams(ctx context.Context, params map[string]string) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for name, value := range params {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO hyperparams (run_uuid, name, value) VALUES (?, ?, ?)`,
			w.uuid, name, value); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (w *Writer) Save(ctx context.Context, step int, values map[string]float64) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for name, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metrics (run_uuid, name, step, value) VALUES (?, ?, ?, ?)`,
			w.uuid, name, step, value); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (w *Writer) Status(ctx context.Context, step int, status string) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, status_step = ? WHERE uuid = ?`,
		status, step, w.uuid)
	return err
}

func (w *Writer) Close() error {
	return w.db.Close()
}
