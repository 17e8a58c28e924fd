// Package history keeps a SQLite ledger of finished benchmark runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"storebench/benchmark"
)

// Entry is one recorded run.
type Entry struct {
	RunID            string
	Mode             string
	Backend          string
	RemotePath       string
	Started          time.Time
	TotalBytes       uint64
	BytesTransferred uint64
	Segments         int
	Succeeded        int
	Failed           int
	Canceled         int
	Throttled        int
	Elapsed          time.Duration
	SpeedMBps        float64
	Partial          bool
	Error            string
}

// Ledger stores final run results. Progress samples are never recorded.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.initTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return l, nil
}

func (l *Ledger) initTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		backend TEXT,
		remote_path TEXT,
		started_unix_ns INTEGER NOT NULL,
		total_bytes INTEGER,
		bytes_transferred INTEGER,
		segments INTEGER,
		succeeded INTEGER,
		failed INTEGER,
		canceled INTEGER,
		throttled INTEGER,
		elapsed_ms INTEGER,
		speed_mbps REAL,
		partial INTEGER,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_unix_ns);
	`
	_, err := l.db.Exec(query)
	return err
}

// Record stores result together with the run's error, if any.
func (l *Ledger) Record(ctx context.Context, result benchmark.RunResult, runErr error) error {
	if result.RunID == "" {
		return fmt.Errorf("record run: %w: empty run id", benchmark.ErrInvalidArgument)
	}
	started := result.Started
	if started.IsZero() {
		started = time.Now()
	}
	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}

	query := `INSERT OR REPLACE INTO runs (run_id, mode, backend, remote_path, started_unix_ns, total_bytes, bytes_transferred,
		segments, succeeded, failed, canceled, throttled, elapsed_ms, speed_mbps, partial, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, query,
		result.RunID, string(result.Mode), result.Backend, result.RemotePath, started.UnixNano(),
		int64(result.TotalBytes), int64(result.BytesTransferred),
		result.Segments, result.Succeeded, result.Failed, result.Canceled, result.Throttled,
		result.Elapsed.Milliseconds(), result.SpeedMBps, result.Partial, errText)
	if err != nil {
		return fmt.Errorf("record run %s: %w", result.RunID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit of 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT run_id, mode, backend, remote_path, started_unix_ns, total_bytes, bytes_transferred,
		segments, succeeded, failed, canceled, throttled, elapsed_ms, speed_mbps, partial, error
		FROM runs ORDER BY started_unix_ns DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			startedNs, elapsedMs int64
			total, transferred   int64
			backend, remote      sql.NullString
			errText              sql.NullString
		)
		if err := rows.Scan(&e.RunID, &e.Mode, &backend, &remote, &startedNs, &total, &transferred,
			&e.Segments, &e.Succeeded, &e.Failed, &e.Canceled, &e.Throttled, &elapsedMs, &e.SpeedMBps, &e.Partial, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Backend = backend.String
		e.RemotePath = remote.String
		e.Error = errText.String
		e.Started = time.Unix(0, startedNs)
		e.TotalBytes = uint64(total)
		e.BytesTransferred = uint64(transferred)
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return entries, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
