package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hylla/todo/internal/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// Service is the application state for one process: the task store, its
// action log, and the repository that every mutation is saved to.
type Service struct {
	repo   Repository
	clock  Clock
	newKey KeyGenerator
	store  *TaskStore
}

// NewService constructs a service with empty state. Call Load to read the
// repository. A nil repository keeps state in memory only.
func NewService(repo Repository, newKey KeyGenerator, clock Clock) *Service {
	if newKey == nil {
		newKey = sequentialKeys()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:   repo,
		clock:  clock,
		newKey: newKey,
		store:  NewTaskStore(domain.Snapshot{}, newKey),
	}
}

// Load replaces in-memory state with the repository contents and clears
// any pending undo.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.store = NewTaskStore(snap, s.newKey)
	return nil
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock()
}

// AddTask appends a task to the active list and saves.
func (s *Service) AddTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	task := s.store.Add(in)
	if err := s.save(ctx); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MarkDone completes the active task with id and saves.
func (s *Service) MarkDone(ctx context.Context, id uint) error {
	if err := s.store.MarkDone(id); err != nil {
		return err
	}
	return s.save(ctx)
}

// DeleteTask removes the active task with id and saves.
func (s *Service) DeleteTask(ctx context.Context, id uint) (domain.Task, error) {
	task, err := s.store.Delete(id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.save(ctx); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Archive moves completed tasks to the archive, saves, and returns the count moved.
func (s *Service) Archive(ctx context.Context) (int, error) {
	count := s.store.Archive()
	if err := s.save(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

// Undo reverses the most recent mutation and saves.
func (s *Service) Undo(ctx context.Context) (UndoResult, error) {
	result, err := s.store.Undo()
	if err != nil {
		return UndoResult{}, err
	}
	if err := s.save(ctx); err != nil {
		return UndoResult{}, err
	}
	return result, nil
}

// ListTasks returns a filtered and sorted view of the active list.
func (s *Service) ListTasks(opts domain.ListOptions) []domain.Task {
	return domain.ApplyView(s.store.Active(), opts)
}

// ListArchived returns the archive in stored order.
func (s *Service) ListArchived() []domain.Task {
	return s.store.Archived()
}

// save writes both lists. Save failures are returned wrapped and are fatal to callers.
func (s *Service) save(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, s.store.Snapshot()); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
