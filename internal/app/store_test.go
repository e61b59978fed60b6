package app

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/hylla/todo/internal/domain"
)

func assertDenseIDs(t *testing.T, label string, tasks []domain.Task) {
	t.Helper()
	for idx, task := range tasks {
		if task.ID != uint(idx+1) {
			t.Fatalf("%s: expected id %d at index %d, got %d", label, idx+1, idx, task.ID)
		}
	}
}

func taskDescriptions(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Description)
	}
	return out
}

func TestTaskStoreAddAssignsSequentialIDs(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{}, nil)
	first := s.Add(domain.TaskInput{Description: "buy milk"})
	second := s.Add(domain.TaskInput{Description: ""})
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids %d, %d", first.ID, second.ID)
	}
	if first.Priority != domain.PriorityLow || first.Completed {
		t.Fatalf("unexpected defaults %#v", first)
	}
	if first.Key == "" || first.Key == second.Key {
		t.Fatalf("expected distinct stable keys, got %q and %q", first.Key, second.Key)
	}
}

func TestTaskStoreMarkDone(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{}, nil)
	s.Add(domain.TaskInput{Description: "a"})
	if err := s.MarkDone(1); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	if !s.Active()[0].Completed {
		t.Fatal("expected task completed")
	}
	if err := s.MarkDone(9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskStoreMarkDoneIgnoresArchive(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{
		Archived: []domain.Task{{ID: 1, Description: "old"}},
	}, nil)
	if err := s.MarkDone(1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for archive-only id, got %v", err)
	}
}

func TestTaskStoreFailedMutationKeepsPendingAction(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{}, nil)
	s.Add(domain.TaskInput{Description: "a"})
	if _, err := s.Delete(5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	action, ok := s.Pending()
	if !ok {
		t.Fatal("expected pending action")
	}
	if _, isAdd := action.(domain.AddAction); !isAdd {
		t.Fatalf("expected pending add action, got %T", action)
	}
}

func TestTaskStoreDeleteRenumbers(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{}, nil)
	s.Add(domain.TaskInput{Description: "A"})
	s.Add(domain.TaskInput{Description: "B"})
	s.Add(domain.TaskInput{Description: "C"})
	removed, err := s.Delete(1)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed.Description != "A" {
		t.Fatalf("unexpected removed task %#v", removed)
	}
	active := s.Active()
	assertDenseIDs(t, "active", active)
	if !slices.Equal(taskDescriptions(active), []string{"B", "C"}) {
		t.Fatalf("unexpected active list %v", taskDescriptions(active))
	}
}

func TestTaskStoreArchivePartition(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{
		Archived: []domain.Task{{ID: 1, Description: "old", Completed: true}},
	}, nil)
	for _, desc := range []string{"a", "b", "c", "d"} {
		s.Add(domain.TaskInput{Description: desc})
	}
	_ = s.MarkDone(2)
	_ = s.MarkDone(4)

	if got := s.Archive(); got != 2 {
		t.Fatalf("Archive() = %d, want 2", got)
	}
	active := s.Active()
	archived := s.Archived()
	for _, task := range active {
		if task.Completed {
			t.Fatalf("completed task %q left in active list", task.Description)
		}
	}
	if !slices.Equal(taskDescriptions(active), []string{"a", "c"}) {
		t.Fatalf("unexpected active list %v", taskDescriptions(active))
	}
	if !slices.Equal(taskDescriptions(archived), []string{"old", "b", "d"}) {
		t.Fatalf("unexpected archive %v", taskDescriptions(archived))
	}
	assertDenseIDs(t, "active", active)
	assertDenseIDs(t, "archived", archived)
}

func TestTaskStoreArchiveNothingCompleted(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{}, nil)
	s.Add(domain.TaskInput{Description: "a"})
	if got := s.Archive(); got != 0 {
		t.Fatalf("Archive() = %d, want 0", got)
	}
	if len(s.Active()) != 1 || len(s.Archived()) != 0 {
		t.Fatal("expected archive with nothing completed to be a no-op")
	}
}

func TestNewTaskStoreRenumbersLoadedLists(t *testing.T) {
	s := NewTaskStore(domain.Snapshot{
		Active:   []domain.Task{{ID: 4, Description: "x"}, {ID: 9, Description: "y"}},
		Archived: []domain.Task{{ID: 3, Description: "z"}},
	}, nil)
	assertDenseIDs(t, "active", s.Active())
	assertDenseIDs(t, "archived", s.Archived())
	if _, ok := s.Pending(); ok {
		t.Fatal("expected no pending action after load")
	}
}

func TestTaskStoreIDDensityAcrossRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 21))
	s := NewTaskStore(domain.Snapshot{}, nil)
	for step := 0; step < 500; step++ {
		active := s.Active()
		switch op := rng.IntN(6); {
		case op <= 1 || len(active) == 0:
			s.Add(domain.TaskInput{Description: "task"})
		case op == 2:
			_ = s.MarkDone(uint(rng.IntN(len(active)) + 1))
		case op == 3:
			_, _ = s.Delete(uint(rng.IntN(len(active)) + 1))
		case op == 4:
			s.Archive()
		default:
			_, _ = s.Undo()
		}
		assertDenseIDs(t, "active", s.Active())
		assertDenseIDs(t, "archived", s.Archived())
	}
}
