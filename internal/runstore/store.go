// Package runstore persists run history, per-stage events, and the artifact
// index in a SQLite database.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed run index.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Run is a recorded pipeline run.
type Run struct {
	ID         string
	Branch     string
	Revision   string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// StageEvent is a recorded stage outcome within a run.
type StageEvent struct {
	ID       int64
	RunID    string
	Stage    string
	Status   string
	Duration time.Duration
	Detail   string
	At       time.Time
}

// Artifact is an indexed build artifact.
type Artifact struct {
	ID        int64
	RunID     string
	Name      string
	Path      string
	SizeBytes int64
	CreatedAt time.Time
}

// New opens (or creates) the store. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		branch TEXT NOT NULL,
		revision TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);
	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		detail TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id);
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records a newly started run.
func (s *Store) BeginRun(ctx context.Context, runID, branch, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, branch, revision, status, started_at) VALUES (?, ?, ?, 'running', ?)",
		runID, branch, revision, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun updates a run's terminal status and revision.
func (s *Store) FinishRun(ctx context.Context, runID, status, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, revision = ?, finished_at = ? WHERE id = ?",
		status, revision, time.Now().Unix(), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// AppendStageEvent records one stage outcome.
func (s *Store) AppendStageEvent(ctx context.Context, runID, stage, status string, duration time.Duration, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO run_events (run_id, stage, status, duration_ms, detail, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		runID, stage, status, duration.Milliseconds(), detail, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert stage event: %w", err)
	}
	return nil
}

// RecordArtifact indexes an uploaded artifact.
func (s *Store) RecordArtifact(ctx context.Context, runID, name, path string, sizeBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO artifacts (run_id, name, path, size_bytes, created_at) VALUES (?, ?, ?, ?, ?)",
		runID, name, path, sizeBytes, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// StageEvents retrieves all stage events for a run in insertion order.
func (s *Store) StageEvents(ctx context.Context, runID string) ([]StageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, stage, status, duration_ms, detail, timestamp FROM run_events WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var e StageEvent
		var durationMS, ts int64
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.Status, &durationMS, &detail, &ts); err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Detail = detail.String
		e.At = time.Unix(ts, 0)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Artifacts retrieves the artifacts indexed for a run.
func (s *Store) Artifacts(ctx context.Context, runID string) ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, name, path, size_bytes, created_at FROM artifacts WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		var ts int64
		if err := rows.Scan(&a.ID, &a.RunID, &a.Name, &a.Path, &a.SizeBytes, &ts); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.CreatedAt = time.Unix(ts, 0)
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// RecentRuns returns the most recently started runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, branch, revision, status, started_at, COALESCE(finished_at, 0) FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Branch, &r.Revision, &r.Status, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		if finished > 0 {
			r.FinishedAt = time.Unix(finished, 0)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
