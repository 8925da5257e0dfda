package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Medication, int, error)
	LowStock(ctx context.Context) ([]*Medication, error)
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Medication, error)
}
