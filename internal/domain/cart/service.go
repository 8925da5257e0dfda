package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/catalog"
	"github.com/curex40/curex40/internal/platform/apperr"
)

// CatalogReader is the slice of the catalog the cart needs: current price,
// stock and prescription flag per medication.
type CatalogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Medication, error)
}

type Service struct {
	repo    Repository
	catalog CatalogReader
	logger  zerolog.Logger
}

func NewService(repo Repository, catalogReader CatalogReader, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogReader,
		logger:  logger.With().Str("component", "cart").Logger(),
	}
}

// Line is a cart item priced against the current catalog.
type Line struct {
	MedicationID         uuid.UUID `json:"medication_id"`
	Name                 string    `json:"name"`
	UnitPrice            float64   `json:"unit_price"`
	Quantity             int       `json:"quantity"`
	LineTotal            float64   `json:"line_total"`
	PrescriptionRequired bool      `json:"prescription_required"`
	InStock              bool      `json:"in_stock"`
}

// View is the priced cart returned to clients. Prices are a preview; the
// binding snapshot is taken at checkout.
type View struct {
	Cart     *Cart   `json:"cart"`
	Lines    []*Line `json:"lines"`
	Subtotal float64 `json:"subtotal"`
}

func (s *Service) Get(ctx context.Context, patientID uuid.UUID) (*View, error) {
	c, err := s.repo.GetOrCreate(ctx, patientID)
	if err != nil {
		return nil, err
	}

	v := &View{Cart: c}
	for _, it := range c.Items {
		m, err := s.catalog.GetByID(ctx, it.MedicationID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				// Medication retired since it was added; drop it silently.
				_ = s.repo.RemoveItem(ctx, c.ID, it.MedicationID)
				continue
			}
			return nil, err
		}
		line := &Line{
			MedicationID:         m.ID,
			Name:                 m.Name,
			UnitPrice:            m.Price,
			Quantity:             it.Quantity,
			LineTotal:            m.Price * float64(it.Quantity),
			PrescriptionRequired: m.PrescriptionRequired,
			InStock:              m.Stock >= it.Quantity,
		}
		v.Lines = append(v.Lines, line)
		v.Subtotal += line.LineTotal
	}
	return v, nil
}

func (s *Service) AddItem(ctx context.Context, patientID, medicationID uuid.UUID, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	m, err := s.catalog.GetByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, apperr.Validation("medication is not available")
	}

	c, err := s.repo.GetOrCreate(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertItem(ctx, c.ID, medicationID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, patientID)
}

func (s *Service) RemoveItem(ctx context.Context, patientID, medicationID uuid.UUID) (*View, error) {
	c, err := s.repo.GetOrCreate(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, c.ID, medicationID); err != nil {
		return nil, err
	}
	return s.Get(ctx, patientID)
}

func (s *Service) Clear(ctx context.Context, patientID uuid.UUID) error {
	c, err := s.repo.GetOrCreate(ctx, patientID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, c.ID)
}
