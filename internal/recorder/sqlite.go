package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SkytechIndex/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run and level history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers of the history do not block the tracker.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			source       TEXT,
			session_date TEXT,
			level        REAL,
			pct_intraday REAL,
			pct_vs_prev  REAL,
			points       INTEGER,
			status       TEXT NOT NULL,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS index_levels (
			timestamp  INTEGER PRIMARY KEY,
			level      REAL NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts a run. An empty RunID is filled with a new UUID.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	_, err := r.db.Exec(`INSERT INTO runs
		(run_id, started_at, finished_at, source, session_date, level,
		 pct_intraday, pct_vs_prev, points, status, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Source, run.SessionDate,
		run.Level, run.PctIntraday, run.PctVsPrev, run.Points, run.Status, run.Error,
	)
	return err
}

// RecordLevels upserts levels keyed by timestamp, so reruns overwrite.
func (r *SQLiteRecorder) RecordLevels(levels []model.IndexLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO index_levels (timestamp, level, updated_at)
		VALUES (?,?,?)
		ON CONFLICT(timestamp) DO UPDATE SET level = excluded.level, updated_at = excluded.updated_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, l := range levels {
		if _, err := stmt.Exec(l.Time.Unix(), l.Level, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert level: %w", err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recent run, or nil if none is recorded.
func (r *SQLiteRecorder) LastRun() (*RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var run RunRecord
	var started, finished int64
	err := r.db.QueryRow(`SELECT run_id, started_at, finished_at, source, session_date,
		level, pct_intraday, pct_vs_prev, points, status, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(
		&run.RunID, &started, &finished, &run.Source, &run.SessionDate,
		&run.Level, &run.PctIntraday, &run.PctVsPrev, &run.Points, &run.Status, &run.Error,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finished, 0)
	return &run, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
