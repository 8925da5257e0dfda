package pharmacy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "pharmacy").Logger()}
}

type Input struct {
	Name           string   `json:"name"`
	LicenseNumber  string   `json:"license_number"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	Phone          *string  `json:"phone"`
	Email          *string  `json:"email"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	OperatingHours *string  `json:"operating_hours"`

	DeliveryAvailable bool     `json:"delivery_available"`
	Rating            *float64 `json:"rating"`
	QualityScore      *float64 `json:"quality_score"`
	Active            *bool    `json:"active"`
}

func (in *Input) validate() error {
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if in.LicenseNumber == "" {
		return apperr.Validation("license_number is required")
	}
	if in.Address == "" || in.City == "" {
		return apperr.Validation("address and city are required")
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		return apperr.Validation("rating must be between 0 and 5")
	}
	if in.QualityScore != nil && (*in.QualityScore < 0 || *in.QualityScore > 100) {
		return apperr.Validation("quality_score must be between 0 and 100")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in Input) (*Pharmacy, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByLicense(ctx, in.LicenseNumber); err == nil && existing != nil {
		return nil, apperr.Conflict("a pharmacy with license %s already exists", in.LicenseNumber)
	} else if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	p := &Pharmacy{
		Name:              in.Name,
		LicenseNumber:     in.LicenseNumber,
		Address:           in.Address,
		City:              in.City,
		Phone:             in.Phone,
		Email:             in.Email,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		OperatingHours:    in.OperatingHours,
		DeliveryAvailable: in.DeliveryAvailable,
		Active:            true,
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.QualityScore != nil {
		p.QualityScore = *in.QualityScore
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("pharmacy_id", p.ID.String()).Str("license", p.LicenseNumber).Msg("pharmacy registered")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Pharmacy, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Pharmacy, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.LicenseNumber = in.LicenseNumber
	p.Address = in.Address
	p.City = in.City
	p.Phone = in.Phone
	p.Email = in.Email
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.OperatingHours = in.OperatingHours
	p.DeliveryAvailable = in.DeliveryAvailable
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.QualityScore != nil {
		p.QualityScore = *in.QualityScore
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, city string, activeOnly bool, limit, offset int) ([]*Pharmacy, int, error) {
	return s.repo.List(ctx, city, activeOnly, limit, offset)
}
