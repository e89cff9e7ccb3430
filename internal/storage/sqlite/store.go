package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tracker/internal/models"
)

// Store persists full snapshots of the task manager in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY,
            kind TEXT NOT NULL,
            name TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'NEW',
            description TEXT NOT NULL DEFAULT '',
            start_time DATETIME,
            duration_minutes INTEGER NOT NULL DEFAULT 0,
            epic_id INTEGER
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_kind ON tasks(kind);`,
		`CREATE TABLE IF NOT EXISTS meta (
            key TEXT PRIMARY KEY,
            value INTEGER NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save replaces the stored snapshot with tasks and records the next free id
// in a single transaction.
func (s *Store) Save(ctx context.Context, tasks []models.Task, nextID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks(id, kind, name, status, description, start_time, duration_minutes, epic_id)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		var start sql.NullTime
		if t.Scheduled() {
			start = sql.NullTime{Time: t.StartTime.UTC(), Valid: true}
		}
		var epicID sql.NullInt64
		if t.Kind == models.KindSubtask {
			epicID = sql.NullInt64{Int64: t.EpicID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, t.ID, string(t.Kind), t.Name, string(t.Status), t.Description,
			start, int64(t.Duration/time.Minute), epicID); err != nil {
			return fmt.Errorf("insert task %d: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES('next_id', ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`, nextID); err != nil {
		return fmt.Errorf("save next id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("snapshot saved", slog.Int("tasks", len(tasks)))
	return nil
}

// Load returns the stored tasks ordered by id together with the recorded
// next free id (zero when none was saved yet).
func (s *Store) Load(ctx context.Context) ([]models.Task, int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, name, status, description, start_time, duration_minutes, epic_id
        FROM tasks ORDER BY id`)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var (
			t       models.Task
			kind    string
			status  string
			start   sql.NullTime
			minutes int64
			epicID  sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &kind, &t.Name, &status, &t.Description, &start, &minutes, &epicID); err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		if t.Kind, err = models.ParseKind(kind); err != nil {
			return nil, 0, fmt.Errorf("task %d: %w", t.ID, err)
		}
		if t.Status, err = models.ParseStatus(status); err != nil {
			return nil, 0, fmt.Errorf("task %d: %w", t.ID, err)
		}
		if start.Valid {
			t.StartTime = start.Time
		}
		if t.Duration, err = models.DurationFromMinutes(minutes); err != nil {
			return nil, 0, fmt.Errorf("task %d: %w", t.ID, err)
		}
		t.EpicID = epicID.Int64
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var nextID sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'next_id'`).Scan(&nextID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("load next id: %w", err)
	}
	return tasks, nextID.Int64, nil
}
