package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority is a sort key for tasks. The zero value is not valid; use PriorityLow.
type Priority string

// Priority values in ascending order.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// validPriorities stores priorities in rank order.
var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Priorities returns all priorities from lowest to highest.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// Rank returns the position of p in the Low < Medium < High order.
// Unknown values rank as Low.
func (p Priority) Rank() int {
	idx := slices.Index(validPriorities, p)
	if idx < 0 {
		return 0
	}
	return idx
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// ParsePriority parses user input such as "low", "HIGH" or "2".
// Empty input yields PriorityLow.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "low", "l", "1":
		return PriorityLow, nil
	case "medium", "med", "m", "2":
		return PriorityMedium, nil
	case "high", "h", "3":
		return PriorityHigh, nil
	default:
		return "", ErrInvalidPriority
	}
}

// Task is one tracked item. ID is a position-derived label within its
// current list and changes whenever that list is renumbered.
type Task struct {
	ID          uint
	Description string
	Tags        []string
	DueDate     *time.Time
	Priority    Priority
	Completed   bool

	// Key identifies the task across renumbering. It is process-local.
	Key string
}

// TaskInput holds the user-supplied fields of a new task.
type TaskInput struct {
	Description string
	Tags        []string
	DueDate     *time.Time
	Priority    Priority
}

// NewTask builds an incomplete task from input. Empty descriptions are allowed.
func NewTask(id uint, key string, in TaskInput) Task {
	priority := in.Priority
	if !priority.Valid() {
		priority = PriorityLow
	}
	return Task{
		ID:          id,
		Description: in.Description,
		Tags:        slices.Clone(in.Tags),
		DueDate:     normalizeDueDate(in.DueDate),
		Priority:    priority,
		Key:         key,
	}
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	out := t
	out.Tags = slices.Clone(t.Tags)
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}

// HasTags reports whether every tag in want is present on t.
func (t Task) HasTags(want []string) bool {
	for _, tag := range want {
		if !slices.Contains(t.Tags, tag) {
			return false
		}
	}
	return true
}

// IsOverdue reports whether t has a due date strictly before now.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now)
}

// Renumber assigns ids 1..N in slice order.
func Renumber(tasks []Task) {
	for idx := range tasks {
		tasks[idx].ID = uint(idx + 1)
	}
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Clone())
	}
	return out
}

// ParseTags splits comma-separated tag input, trimming each tag and dropping empty ones.
func ParseTags(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	ts := due.UTC()
	return &ts
}
