package app

import (
	"slices"
	"strconv"

	"github.com/hylla/todo/internal/domain"
)

// KeyGenerator returns stable identifiers for tasks.
type KeyGenerator func() string

// TaskStore owns the active and archived lists and the one-slot action log.
// Every successful mutation renumbers the lists it touched to 1..N and
// replaces the pending action.
type TaskStore struct {
	active   []domain.Task
	archived []domain.Task
	log      ActionLog
	newKey   KeyGenerator
}

// NewTaskStore builds a store from a loaded snapshot. Loaded tasks receive
// fresh keys and both lists are renumbered.
func NewTaskStore(snap domain.Snapshot, newKey KeyGenerator) *TaskStore {
	if newKey == nil {
		newKey = sequentialKeys()
	}
	s := &TaskStore{
		active:   domain.CloneTasks(snap.Active),
		archived: domain.CloneTasks(snap.Archived),
		newKey:   newKey,
	}
	for idx := range s.active {
		s.active[idx].Key = s.newKey()
	}
	for idx := range s.archived {
		s.archived[idx].Key = s.newKey()
	}
	domain.Renumber(s.active)
	domain.Renumber(s.archived)
	return s
}

// Active returns a copy of the active list in stored order.
func (s *TaskStore) Active() []domain.Task {
	return domain.CloneTasks(s.active)
}

// Archived returns a copy of the archive in stored order.
func (s *TaskStore) Archived() []domain.Task {
	return domain.CloneTasks(s.archived)
}

// Snapshot returns both lists for persistence.
func (s *TaskStore) Snapshot() domain.Snapshot {
	return domain.Snapshot{Active: s.Active(), Archived: s.Archived()}
}

// Pending returns the action that Undo would reverse.
func (s *TaskStore) Pending() (domain.Action, bool) {
	return s.log.Pending()
}

// Add appends a new task with the next sequential id.
func (s *TaskStore) Add(in domain.TaskInput) domain.Task {
	task := domain.NewTask(uint(len(s.active)+1), s.newKey(), in)
	s.active = append(s.active, task)
	s.log.Record(domain.AddAction{Task: task.Clone()})
	return task.Clone()
}

// MarkDone completes the active task with id.
func (s *TaskStore) MarkDone(id uint) error {
	idx := s.indexByID(id)
	if idx < 0 {
		return domain.ErrNotFound
	}
	was := s.active[idx].Completed
	s.active[idx].Completed = true
	s.log.Record(domain.DoneAction{ID: id, Key: s.active[idx].Key, WasCompleted: was})
	return nil
}

// Delete removes the active task with id and renumbers the active list.
func (s *TaskStore) Delete(id uint) (domain.Task, error) {
	idx := s.indexByID(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrNotFound
	}
	removed := s.active[idx]
	s.active = slices.Delete(s.active, idx, idx+1)
	domain.Renumber(s.active)
	s.log.Record(domain.DeleteAction{Task: removed.Clone()})
	return removed, nil
}

// Archive moves every completed active task to the end of the archive,
// keeping relative order, and returns how many moved.
func (s *TaskStore) Archive() int {
	kept := make([]domain.Task, 0, len(s.active))
	keys := make([]string, 0)
	for _, task := range s.active {
		if !task.Completed {
			kept = append(kept, task)
			continue
		}
		s.archived = append(s.archived, task)
		keys = append(keys, task.Key)
	}
	s.active = kept
	domain.Renumber(s.active)
	domain.Renumber(s.archived)
	s.log.Record(domain.ArchiveAction{Count: len(keys), Keys: keys})
	return len(keys)
}

// indexByID returns the active-list index of id, or -1.
func (s *TaskStore) indexByID(id uint) int {
	return slices.IndexFunc(s.active, func(t domain.Task) bool { return t.ID == id })
}

func indexByKey(tasks []domain.Task, key string) int {
	if key == "" {
		return -1
	}
	return slices.IndexFunc(tasks, func(t domain.Task) bool { return t.Key == key })
}

// sequentialKeys is the fallback key source when no generator is supplied.
func sequentialKeys() KeyGenerator {
	next := 0
	return func() string {
		next++
		return "task-" + strconv.Itoa(next)
	}
}
