package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
)

// Service owns catalog business rules. Stock itself is never mutated here;
// the inventory service is the only writer of stock levels.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "catalog").Logger()}
}

// CreateInput carries the fields a pharmacist may set when registering a
// medication. Opening stock is recorded separately through the inventory
// ledger.
type CreateInput struct {
	Name                 string     `json:"name"`
	GenericName          *string    `json:"generic_name"`
	Description          *string    `json:"description"`
	Category             string     `json:"category"`
	DosageForm           *string    `json:"dosage_form"`
	Strength             *string    `json:"strength"`
	Manufacturer         *string    `json:"manufacturer"`
	Price                float64    `json:"price"`
	MinStock             int        `json:"min_stock"`
	MaxStock             int        `json:"max_stock"`
	PrescriptionRequired bool       `json:"prescription_required"`
	BatchNumber          *string    `json:"batch_number"`
	ExpiryDate           *time.Time `json:"expiry_date"`
}

func (in *CreateInput) validate() error {
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if in.Category == "" {
		return apperr.Validation("category is required")
	}
	if in.Price < 0 {
		return apperr.Validation("price must not be negative")
	}
	if in.MinStock < 0 {
		return apperr.Validation("min_stock must not be negative")
	}
	if in.MaxStock > 0 && in.MaxStock < in.MinStock {
		return apperr.Validation("max_stock must be at least min_stock")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Medication, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m := &Medication{
		Name:                 in.Name,
		GenericName:          in.GenericName,
		Description:          in.Description,
		Category:             in.Category,
		DosageForm:           in.DosageForm,
		Strength:             in.Strength,
		Manufacturer:         in.Manufacturer,
		Price:                in.Price,
		MinStock:             in.MinStock,
		MaxStock:             in.MaxStock,
		PrescriptionRequired: in.PrescriptionRequired,
		BatchNumber:          in.BatchNumber,
		ExpiryDate:           in.ExpiryDate,
		Active:               true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info().Str("medication_id", m.ID.String()).Str("name", m.Name).Msg("medication created")
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Medication, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Name = in.Name
	m.GenericName = in.GenericName
	m.Description = in.Description
	m.Category = in.Category
	m.DosageForm = in.DosageForm
	m.Strength = in.Strength
	m.Manufacturer = in.Manufacturer
	m.Price = in.Price
	m.MinStock = in.MinStock
	m.MaxStock = in.MaxStock
	m.PrescriptionRequired = in.PrescriptionRequired
	m.BatchNumber = in.BatchNumber
	m.ExpiryDate = in.ExpiryDate

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("medication_id", id.String()).Msg("medication retired")
	return nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Medication, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) LowStock(ctx context.Context) ([]*Medication, error) {
	return s.repo.LowStock(ctx)
}

// ExpiringSoon lists active medications whose expiry date falls within the
// given number of days from now.
func (s *Service) ExpiringSoon(ctx context.Context, days int) ([]*Medication, error) {
	if days <= 0 {
		days = 30
	}
	return s.repo.ExpiringBefore(ctx, time.Now().AddDate(0, 0, days))
}
