package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/todo/internal/domain"
)

// Logger receives warnings about unreadable state. *log.Logger satisfies it.
type Logger interface {
	Warn(msg any, keyvals ...any)
}

// Repository keeps both task lists in one JSON document on disk.
type Repository struct {
	path   string
	logger Logger
}

// document is the on-disk layout.
type document struct {
	Active   []record `json:"active"`
	Archived []record `json:"archived"`
}

type record struct {
	ID          uint       `json:"id"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
}

// New returns a repository backed by path. A nil logger discards warnings.
func New(path string, logger Logger) (*Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("json storage path is required")
	}
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	return &Repository{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the stored lists. A missing file yields empty lists; an
// unreadable or malformed file is logged and also yields empty lists.
func (r *Repository) Load(_ context.Context) (domain.Snapshot, error) {
	empty := domain.Snapshot{Active: []domain.Task{}, Archived: []domain.Task{}}
	content, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return empty, nil
		}
		r.logger.Warn("task file unreadable, starting empty", "path", r.path, "err", err)
		return empty, nil
	}
	if strings.TrimSpace(string(content)) == "" {
		return empty, nil
	}
	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		r.logger.Warn("task file malformed, starting empty", "path", r.path, "err", err)
		return empty, nil
	}
	return domain.Snapshot{
		Active:   fromRecords(doc.Active),
		Archived: fromRecords(doc.Archived),
	}, nil
}

// Save writes both lists to a temp file in the same directory and renames
// it over the target, so readers never observe a partial document.
func (r *Repository) Save(_ context.Context, snap domain.Snapshot) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	content, err := json.MarshalIndent(document{
		Active:   toRecords(snap.Active),
		Archived: toRecords(snap.Archived),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(append(content, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replace task file: %w", err)
	}
	return nil
}

func toRecords(tasks []domain.Task) []record {
	out := make([]record, 0, len(tasks))
	for _, task := range tasks {
		tags := task.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, record{
			ID:          task.ID,
			Description: task.Description,
			Tags:        tags,
			DueDate:     task.DueDate,
			Priority:    string(task.Priority),
			Completed:   task.Completed,
		})
	}
	return out
}

func fromRecords(records []record) []domain.Task {
	out := make([]domain.Task, 0, len(records))
	for _, rec := range records {
		priority := domain.Priority(rec.Priority)
		if !priority.Valid() {
			priority = domain.PriorityLow
		}
		task := domain.Task{
			ID:          rec.ID,
			Description: rec.Description,
			Tags:        append([]string(nil), rec.Tags...),
			Priority:    priority,
			Completed:   rec.Completed,
		}
		if rec.DueDate != nil {
			due := rec.DueDate.UTC()
			task.DueDate = &due
		}
		out = append(out, task)
	}
	return out
}
