package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/todo/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

const (
	listActive   = "active"
	listArchived = "archived"
)

// Logger receives warnings about unreadable state. *log.Logger satisfies it.
type Logger interface {
	Warn(msg any, keyvals ...any)
}

// Repository stores both task lists in one sqlite table.
type Repository struct {
	db     *sql.DB
	logger Logger
}

// Open opens or creates the database at path and applies the schema.
// A nil logger discards warnings.
func Open(path string, logger Logger) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db, logger: discardIfNil(logger)}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory(logger Logger) (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Each pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db, logger: discardIfNil(logger)}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			list TEXT NOT NULL CHECK (list IN ('active', 'archived')),
			position INTEGER NOT NULL,
			id INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL DEFAULT '[]',
			due_date TEXT,
			priority TEXT NOT NULL DEFAULT 'Low',
			completed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (list, position)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Load reads both lists in stored order. Unreadable rows are logged and
// yield an empty snapshot; Load never fails.
func (r *Repository) Load(ctx context.Context) (domain.Snapshot, error) {
	snap, err := r.readAll(ctx)
	if err != nil {
		r.logger.Warn("task database unreadable, starting empty", "err", err)
		return emptySnapshot(), nil
	}
	return snap, nil
}

func (r *Repository) readAll(ctx context.Context) (domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT list, id, description, tags_json, due_date, priority, completed
		FROM tasks
		ORDER BY list ASC, position ASC
	`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	snap := emptySnapshot()
	for rows.Next() {
		list, task, err := scanTask(rows)
		if err != nil {
			return domain.Snapshot{}, err
		}
		switch list {
		case listActive:
			snap.Active = append(snap.Active, task)
		case listArchived:
			snap.Archived = append(snap.Archived, task)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("read tasks: %w", err)
	}
	return snap, nil
}

func emptySnapshot() domain.Snapshot {
	return domain.Snapshot{Active: []domain.Task{}, Archived: []domain.Task{}}
}

func discardIfNil(logger Logger) Logger {
	if logger == nil {
		return charmLog.New(io.Discard)
	}
	return logger
}

// Save replaces the stored lists with snap in one transaction.
func (r *Repository) Save(ctx context.Context, snap domain.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks(list, position, id, description, tags_json, due_date, priority, completed)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, group := range []struct {
		list  string
		tasks []domain.Task
	}{
		{list: listActive, tasks: snap.Active},
		{list: listArchived, tasks: snap.Archived},
	} {
		for position, task := range group.tasks {
			tags := task.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, err := json.Marshal(tags)
			if err != nil {
				return fmt.Errorf("encode tags_json: %w", err)
			}
			if _, err = stmt.ExecContext(
				ctx,
				group.list,
				position,
				task.ID,
				task.Description,
				string(tagsJSON),
				nullableTS(task.DueDate),
				string(task.Priority),
				boolToInt(task.Completed),
			); err != nil {
				return fmt.Errorf("insert task %d: %w", task.ID, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (string, domain.Task, error) {
	var (
		list      string
		t         domain.Task
		tagsRaw   string
		dueRaw    sql.NullString
		priority  string
		completed int
	)
	if err := s.Scan(&list, &t.ID, &t.Description, &tagsRaw, &dueRaw, &priority, &completed); err != nil {
		return "", domain.Task{}, err
	}
	if strings.TrimSpace(tagsRaw) == "" {
		tagsRaw = "[]"
	}
	if err := json.Unmarshal([]byte(tagsRaw), &t.Tags); err != nil {
		return "", domain.Task{}, fmt.Errorf("decode tags_json: %w", err)
	}
	t.DueDate = parseNullTS(dueRaw)
	t.Priority = domain.Priority(priority)
	if !t.Priority.Valid() {
		t.Priority = domain.PriorityLow
	}
	t.Completed = completed != 0
	return list, t, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	if ts.IsZero() {
		return nil
	}
	return &ts
}
