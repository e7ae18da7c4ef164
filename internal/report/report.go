// Package report writes an optional SQLite database describing a deletion
// run: one run_meta row and one failures row per recorded failure. The
// database is an output artifact; the tool never reads it back.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// maxRecorded caps how many failures are retained in memory for the report;
// beyond it only the dropped count grows.
const maxRecorded = 1000

const runMetaDDL = `
CREATE TABLE IF NOT EXISTS run_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    root_path TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    deleted INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    recorded INTEGER NOT NULL,
    dropped INTEGER NOT NULL
);
`

const failuresDDL = `
CREATE TABLE IF NOT EXISTS failures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    op TEXT NOT NULL,
    path TEXT NOT NULL,
    message TEXT NOT NULL
);
`

const insertRunMetaSQL = `INSERT INTO run_meta (id, root_path, start_time, end_time, deleted, failed, recorded, dropped) VALUES (1, ?, ?, ?, ?, ?, ?, ?)`
const insertFailureSQL = `INSERT INTO failures (op, path, message) VALUES (?, ?, ?)`

// Failure is one failed filesystem operation destined for the report.
type Failure struct {
	Op      string
	Path    string
	Message string
}

// Summary describes the finished run for the run_meta row.
type Summary struct {
	Root    string
	Start   time.Time
	End     time.Time
	Deleted int64
	Failed  int64
}

// Recorder collects failures during a run. Record is safe to call from the
// engine's workers concurrently.
type Recorder struct {
	mu       sync.Mutex
	failures []Failure
	dropped  int64
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record retains one failure, up to maxRecorded.
func (r *Recorder) Record(op, path, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) >= maxRecorded {
		r.dropped++
		return
	}
	r.failures = append(r.failures, Failure{Op: op, Path: path, Message: message})
}

// Len returns the number of retained failures.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// Write creates the report database at path and stores the run summary plus
// every retained failure in a single transaction.
func (r *Recorder) Write(ctx context.Context, path string, sum Summary) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open report database: %w", err)
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return err
	}

	r.mu.Lock()
	failures := make([]Failure, len(r.failures))
	copy(failures, r.failures)
	dropped := r.dropped
	r.mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFailureSQL)
	if err != nil {
		return fmt.Errorf("prepare failure statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range failures {
		if _, err := stmt.ExecContext(ctx, f.Op, f.Path, f.Message); err != nil {
			return fmt.Errorf("insert failure for %s: %w", f.Path, err)
		}
	}

	_, err = tx.ExecContext(ctx, insertRunMetaSQL,
		sum.Root, sum.Start.Unix(), sum.End.Unix(),
		sum.Deleted, sum.Failed, int64(len(failures)), dropped,
	)
	if err != nil {
		return fmt.Errorf("insert run_meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	for _, ddl := range []string{runMetaDDL, failuresDDL} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("execute DDL: %w", err)
		}
	}
	return nil
}
