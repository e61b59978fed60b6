package domain

import "errors"

var (
	ErrNotFound        = errors.New("task not found")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrInvalidDueDate  = errors.New("invalid due date")
	ErrInvalidPriority = errors.New("invalid priority")
)
