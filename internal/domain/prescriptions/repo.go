package prescriptions

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the prescription and its items.
	Create(ctx context.Context, p *Prescription) error
	// GetByID loads the prescription with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// Update persists header fields and the quantity_filled of every item.
	Update(ctx context.Context, p *Prescription) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error)
}
