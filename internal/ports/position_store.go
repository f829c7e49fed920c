package ports

import (
	"context"

	"github.com/alejandrodnm/cbctracker/internal/domain"
)

// PositionStore owns the canonical list of positions.
type PositionStore interface {
	// ListAll returns every position, newest openedAt first.
	ListAll(ctx context.Context) ([]domain.Position, error)

	// Get returns domain.ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (domain.Position, error)

	// Add appends p. It fails with domain.ErrAlreadyExists on a duplicate id.
	Add(ctx context.Context, p domain.Position) error

	// Update merges patch into the position with the given id.
	// It returns false without writing when id is unknown.
	Update(ctx context.Context, id string, patch domain.PositionPatch) (bool, error)

	// UpdateFunc reads the position, lets fn decide the patch and writes it
	// back as one step with respect to other calls on the same store.
	UpdateFunc(ctx context.Context, id string, fn func(domain.Position) (domain.PositionPatch, error)) (domain.Position, error)

	// Delete removes the position. It returns false when id is unknown.
	Delete(ctx context.Context, id string) (bool, error)
}
