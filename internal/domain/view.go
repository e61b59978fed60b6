package domain

import "slices"

// Snapshot is the persisted state: the active list and the archive.
type Snapshot struct {
	Active   []Task
	Archived []Task
}

// ListOptions selects a read-only view over a task list.
type ListOptions struct {
	Tags           []string
	SortByDueDate  bool
	SortByPriority bool
}

// ApplyView filters and sorts a copy of tasks. The input is never reordered.
// Tag filtering keeps tasks carrying every requested tag. Both sorts are
// stable; when both are requested the priority sort is applied last.
func ApplyView(tasks []Task, opts ListOptions) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.HasTags(opts.Tags) {
			out = append(out, task.Clone())
		}
	}
	if opts.SortByDueDate {
		slices.SortStableFunc(out, compareDueDate)
	}
	if opts.SortByPriority {
		slices.SortStableFunc(out, func(a, b Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	}
	return out
}

// compareDueDate orders present due dates ascending and absent ones last.
func compareDueDate(a, b Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	default:
		return a.DueDate.Compare(*b.DueDate)
	}
}
