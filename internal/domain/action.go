package domain

// Action records the most recent mutation so it can be reversed.
// The concrete types are AddAction, DeleteAction, DoneAction and ArchiveAction.
type Action interface {
	// Name is a short label used in logs and status lines.
	Name() string
	isAction()
}

// AddAction records a task appended to the active list.
type AddAction struct {
	Task Task
}

// DeleteAction records a task removed from the active list, as it was before removal.
type DeleteAction struct {
	Task Task
}

// DoneAction records a task marked completed.
type DoneAction struct {
	ID           uint
	Key          string
	WasCompleted bool
}

// ArchiveAction records the tasks moved from the active list to the archive.
type ArchiveAction struct {
	Count int
	Keys  []string
}

func (AddAction) Name() string     { return "add" }
func (DeleteAction) Name() string  { return "delete" }
func (DoneAction) Name() string    { return "done" }
func (ArchiveAction) Name() string { return "archive" }

func (AddAction) isAction()     {}
func (DeleteAction) isAction()  {}
func (DoneAction) isAction()    {}
func (ArchiveAction) isAction() {}
