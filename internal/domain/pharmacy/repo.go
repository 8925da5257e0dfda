package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Pharmacy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error)
	GetByLicense(ctx context.Context, license string) (*Pharmacy, error)
	Update(ctx context.Context, p *Pharmacy) error
	List(ctx context.Context, city string, activeOnly bool, limit, offset int) ([]*Pharmacy, int, error)
}
