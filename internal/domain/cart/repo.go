package cart

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetOrCreate returns the patient's cart with items, creating an empty
	// cart on first use.
	GetOrCreate(ctx context.Context, patientID uuid.UUID) (*Cart, error)
	// UpsertItem adds the medication or, if already present, replaces its
	// quantity.
	UpsertItem(ctx context.Context, cartID, medicationID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, medicationID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}
