/*
Package sqlite persists availability runs in SQLite.

Each run stores its mode and the records it produced, in emission order,
so a report can be reproduced later without re-running the engine.

KEY TABLES:
  runs:           One row per orchestrator run
  availabilities: Records of a run, ordered by seq

WAL MODE:
  The database is opened with WAL so readers do not block the writer.
  ":memory:" databases are pinned to a single connection, otherwise every
  pooled connection would see its own empty database.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/workcal/availability/internal/availability"
)

// Fixed-width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is a persisted orchestrator run.
type Run struct {
	ID          string                `json:"id"`
	Mode        availability.Mode     `json:"mode"`
	CreatedAt   time.Time             `json:"created_at"`
	RecordCount int                   `json:"record_count"`
	Records     []availability.Record `json:"availabilities,omitempty"`
}

// Store implements run history using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		created_at TEXT NOT NULL,
		record_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS availabilities (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		developer_id INTEGER,
		period_id INTEGER,
		project_id INTEGER,
		total_days INTEGER NOT NULL,
		workdays INTEGER NOT NULL,
		weekend_days INTEGER NOT NULL,
		holidays INTEGER NOT NULL,
		feasibility BOOLEAN,
		PRIMARY KEY (run_id, seq)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its records in one transaction. An empty ID is
// filled with a new UUID, a zero CreatedAt with the current time.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.RecordCount = len(run.Records)

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, created_at, record_count) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.CreatedAt.UTC().Format(timeLayout), run.RecordCount)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO availabilities
		(run_id, seq, developer_id, period_id, project_id,
		 total_days, workdays, weekend_days, holidays, feasibility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, rec := range run.Records {
		_, err := stmt.ExecContext(ctx,
			run.ID, seq,
			nullInt(rec.DeveloperID), nullInt(rec.PeriodID), nullInt(rec.ProjectID),
			rec.TotalDays, rec.Workdays, rec.WeekendDays, rec.Holidays,
			nullBool(rec.Feasibility),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %d: %w", seq, err)
		}
	}

	return sqlTx.Commit()
}

// GetRun returns a run with its records.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		run       Run
		mode      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mode, created_at, record_count FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &mode, &createdAt, &run.RecordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Mode = availability.Mode(mode)
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT developer_id, period_id, project_id,
		       total_days, workdays, weekend_days, holidays, feasibility
		FROM availabilities
		WHERE run_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	run.Records = make([]availability.Record, 0, run.RecordCount)
	for rows.Next() {
		var (
			rec                        availability.Record
			developer, period, project sql.NullInt64
			feasibility                sql.NullBool
		)
		if err := rows.Scan(&developer, &period, &project,
			&rec.TotalDays, &rec.Workdays, &rec.WeekendDays, &rec.Holidays,
			&feasibility); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.DeveloperID = intFromNull(developer)
		rec.PeriodID = intFromNull(period)
		rec.ProjectID = intFromNull(project)
		if feasibility.Valid {
			v := feasibility.Bool
			rec.Feasibility = &v
		}
		run.Records = append(run.Records, rec)
	}

	return &run, rows.Err()
}

// ListRuns returns run headers, newest first. Records are not loaded.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, created_at, record_count
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			mode      string
			createdAt string
		)
		if err := rows.Scan(&run.ID, &mode, &createdAt, &run.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Mode = availability.Mode(mode)
		run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
