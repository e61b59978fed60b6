package app

import (
	"fmt"
	"slices"

	"github.com/hylla/todo/internal/domain"
)

// ActionLog holds at most one pending action. Recording overwrites it.
type ActionLog struct {
	pending domain.Action
}

// Record replaces the pending action.
func (l *ActionLog) Record(action domain.Action) {
	l.pending = action
}

// Pending returns the pending action, if any.
func (l *ActionLog) Pending() (domain.Action, bool) {
	return l.pending, l.pending != nil
}

// Take returns the pending action and clears the slot.
func (l *ActionLog) Take() (domain.Action, bool) {
	action := l.pending
	l.pending = nil
	return action, action != nil
}

// UndoResult describes a reversed action.
type UndoResult struct {
	Action  domain.Action
	Message string
}

// Undo reverses the pending action and clears it. Tasks are located by their
// stable key, so renumbering since the action was recorded does not matter;
// a task that no longer exists is skipped.
func (s *TaskStore) Undo() (UndoResult, error) {
	action, ok := s.log.Take()
	if !ok {
		return UndoResult{}, domain.ErrNothingToUndo
	}

	switch a := action.(type) {
	case domain.AddAction:
		if idx := indexByKey(s.active, a.Task.Key); idx >= 0 {
			s.active = slices.Delete(s.active, idx, idx+1)
			domain.Renumber(s.active)
		}
		return UndoResult{Action: a, Message: fmt.Sprintf("Undone: Removed added task '%s'", a.Task.Description)}, nil

	case domain.DeleteAction:
		restored := a.Task.Clone()
		restored.Key = s.newKey()
		s.active = append(s.active, restored)
		domain.Renumber(s.active)
		return UndoResult{Action: a, Message: "Undone: Restored deleted task"}, nil

	case domain.DoneAction:
		idx := indexByKey(s.active, a.Key)
		if idx < 0 {
			return UndoResult{Action: a, Message: fmt.Sprintf("Undone: task %d no longer exists", a.ID)}, nil
		}
		s.active[idx].Completed = a.WasCompleted
		if a.WasCompleted {
			return UndoResult{Action: a, Message: fmt.Sprintf("Undone: task %d was already done", s.active[idx].ID)}, nil
		}
		return UndoResult{Action: a, Message: fmt.Sprintf("Undone: Marked task %d as incomplete", s.active[idx].ID)}, nil

	case domain.ArchiveAction:
		restored := 0
		kept := make([]domain.Task, 0, len(s.archived))
		for _, task := range s.archived {
			if slices.Contains(a.Keys, task.Key) {
				s.active = append(s.active, task)
				restored++
				continue
			}
			kept = append(kept, task)
		}
		s.archived = kept
		domain.Renumber(s.active)
		domain.Renumber(s.archived)
		return UndoResult{Action: a, Message: fmt.Sprintf("Undone: Restored %d archived tasks", restored)}, nil

	default:
		return UndoResult{}, fmt.Errorf("undo: unsupported action %T", action)
	}
}
