package orders

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the order and its items.
	Create(ctx context.Context, o *Order) error
	// GetByID loads the order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// Update persists header fields and every item row.
	Update(ctx context.Context, o *Order) error
	// Transition persists like Update but only if the stored status still
	// equals from; a concurrent move loses with a conflict.
	Transition(ctx context.Context, o *Order, from string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Order, int, error)
}
