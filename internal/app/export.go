package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hylla/todo/internal/domain"
)

// ExportVersion identifies the export document layout.
const ExportVersion = "todo.export.v1"

// Export is a portable copy of both task lists. A nil Archived means the
// archive was left out, which is distinct from an empty archive.
type Export struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Active     []ExportTask `json:"active"`
	Archived   []ExportTask `json:"archived"`
}

// ExportTask is one task inside an Export.
type ExportTask struct {
	ID          uint       `json:"id"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
}

// Export returns the current lists. Archived stays nil unless includeArchived is set.
func (s *Service) Export(includeArchived bool) Export {
	out := Export{
		Version:    ExportVersion,
		ExportedAt: s.clock().UTC(),
		Active:     exportTasks(s.store.Active()),
	}
	if includeArchived {
		out.Archived = exportTasks(s.store.Archived())
	}
	return out
}

// Import replaces the active list, and the archive when the document carries
// one, then saves. A document without an archive keeps the current archive.
// Imported lists are renumbered in document order and the pending undo is cleared.
func (s *Service) Import(ctx context.Context, doc Export) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	snap := doc.snapshot()
	if !doc.HasArchive() {
		snap.Archived = s.store.Archived()
	}
	s.store = NewTaskStore(snap, s.newKey)
	return s.save(ctx)
}

// HasArchive reports whether the document carries an archive, even an empty one.
func (e Export) HasArchive() bool {
	return e.Archived != nil
}

// Validate checks the version and every task priority.
func (e Export) Validate() error {
	if e.Version != "" && e.Version != ExportVersion {
		return fmt.Errorf("unsupported export version: %q", e.Version)
	}
	for i, task := range e.Active {
		if _, err := domain.ParsePriority(task.Priority); err != nil {
			return fmt.Errorf("active[%d].priority: %w", i, err)
		}
	}
	for i, task := range e.Archived {
		if _, err := domain.ParsePriority(task.Priority); err != nil {
			return fmt.Errorf("archived[%d].priority: %w", i, err)
		}
	}
	return nil
}

func (e Export) snapshot() domain.Snapshot {
	return domain.Snapshot{
		Active:   importTasks(e.Active),
		Archived: importTasks(e.Archived),
	}
}

func exportTasks(tasks []domain.Task) []ExportTask {
	out := make([]ExportTask, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, ExportTask{
			ID:          task.ID,
			Description: task.Description,
			Tags:        nonNilTags(task.Tags),
			DueDate:     copyTimePtr(task.DueDate),
			Priority:    string(task.Priority),
			Completed:   task.Completed,
		})
	}
	return out
}

// importTasks expects validated input.
func importTasks(in []ExportTask) []domain.Task {
	out := make([]domain.Task, 0, len(in))
	for _, task := range in {
		priority, _ := domain.ParsePriority(task.Priority)
		imported := domain.NewTask(task.ID, "", domain.TaskInput{
			Description: task.Description,
			Tags:        task.Tags,
			DueDate:     task.DueDate,
			Priority:    priority,
		})
		imported.Completed = task.Completed
		out = append(out, imported)
	}
	return out
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}

func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := in.UTC()
	return &ts
}
