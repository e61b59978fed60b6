package app

import (
	"context"

	"github.com/hylla/todo/internal/domain"
)

// Repository loads and saves the active and archived lists together.
// Load returns an empty snapshot when no prior state exists or it cannot be
// parsed. Save must persist both lists atomically.
type Repository interface {
	Load(context.Context) (domain.Snapshot, error)
	Save(context.Context, domain.Snapshot) error
}
