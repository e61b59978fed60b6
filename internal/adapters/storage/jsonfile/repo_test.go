package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/hylla/todo/internal/app"
	"github.com/hylla/todo/internal/domain"
)

var _ app.Repository = (*Repository)(nil)

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "tasks.json")
	repo, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := domain.Snapshot{
		Active: []domain.Task{
			{ID: 1, Description: "buy milk", Tags: []string{"home"}, DueDate: &due, Priority: domain.PriorityMedium},
		},
		Archived: []domain.Task{
			{ID: 1, Description: "done thing", Priority: domain.PriorityLow, Completed: true},
		},
	}
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Active) != 1 || len(loaded.Archived) != 1 {
		t.Fatalf("unexpected snapshot %#v", loaded)
	}
	got := loaded.Active[0]
	if got.Description != "buy milk" || got.Priority != domain.PriorityMedium || !slices.Equal(got.Tags, []string{"home"}) {
		t.Fatalf("unexpected task %#v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("unexpected due date %v", got.DueDate)
	}
	if !loaded.Archived[0].Completed {
		t.Fatal("expected archived task completed")
	}
}

func TestRepository_SaveWritesDocumentLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	repo, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap := domain.Snapshot{Active: []domain.Task{{ID: 1, Description: "x", Priority: domain.PriorityHigh}}}
	if err := repo.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var raw map[string][]map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	archived, ok := raw["archived"]
	if !ok || archived == nil {
		t.Fatal("expected archived key with an empty list")
	}
	entry := raw["active"][0]
	if entry["due_date"] != nil {
		t.Fatalf("expected null due_date, got %v", entry["due_date"])
	}
	if entry["priority"] != "High" {
		t.Fatalf("unexpected priority %v", entry["priority"])
	}
	if tags, ok := entry["tags"].([]any); !ok || len(tags) != 0 {
		t.Fatalf("expected empty tags array, got %#v", entry["tags"])
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected temp files cleaned up, got %v", matches)
	}
}

func TestRepository_LoadMissingFile(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "absent.json"), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.Active) != 0 || len(snap.Archived) != 0 {
		t.Fatalf("expected empty snapshot, got %#v", snap)
	}
}

func TestRepository_LoadMalformedFileWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var logs bytes.Buffer
	repo, err := New(path, charmLog.NewWithOptions(&logs, charmLog.Options{Level: charmLog.WarnLevel}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.Active) != 0 || len(snap.Archived) != 0 {
		t.Fatalf("expected empty snapshot, got %#v", snap)
	}
	if !strings.Contains(logs.String(), "malformed") {
		t.Fatalf("expected warning in logs, got %q", logs.String())
	}
}

func TestRepository_LoadNormalizesUnknownPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	doc := `{"active":[{"id":4,"description":"x","tags":null,"due_date":null,"priority":"Urgent","completed":false}],"archived":[]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	repo, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Active[0].Priority != domain.PriorityLow {
		t.Fatalf("expected unknown priority to load as Low, got %q", snap.Active[0].Priority)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(" ", nil); err == nil {
		t.Fatal("expected error for blank path")
	}
}
