package prescriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
)

// Dispenser records a stock movement for dispensed medication. The inventory
// service implements it; prescriptions never touch stock directly.
type Dispenser interface {
	Dispense(ctx context.Context, medicationID uuid.UUID, quantity int, reference string, performedBy uuid.UUID) error
}

// TxRunner runs fn atomically. Production wiring backs it with a database
// transaction so a fill either dispenses every line and updates the
// prescription, or does neither.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo      Repository
	dispenser Dispenser
	inTx      TxRunner
	logger    zerolog.Logger
}

func NewService(repo Repository, dispenser Dispenser, inTx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		dispenser: dispenser,
		inTx:      inTx,
		logger:    logger.With().Str("component", "prescriptions").Logger(),
	}
}

type CreateItemInput struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Dosage       *string   `json:"dosage"`
	Quantity     int       `json:"quantity"`
}

type CreateInput struct {
	DoctorName     *string           `json:"doctor_name"`
	PharmacyID     *uuid.UUID        `json:"pharmacy_id"`
	ImageURL       *string           `json:"image_url"`
	Notes          *string           `json:"notes"`
	RefillsAllowed int               `json:"refills_allowed"`
	ExpiresAt      *time.Time        `json:"expires_at"`
	Items          []CreateItemInput `json:"items"`
}

// Create submits a prescription for a patient. It starts pending until a
// pharmacist verifies it.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, in CreateInput) (*Prescription, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("patient is required")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("a prescription needs at least one item")
	}
	if in.RefillsAllowed < 0 {
		return nil, apperr.Validation("refills_allowed must not be negative")
	}
	for i, it := range in.Items {
		if it.MedicationID == uuid.Nil {
			return nil, apperr.Validation("item %d: medication_id is required", i)
		}
		if it.Quantity <= 0 {
			return nil, apperr.Validation("item %d: quantity must be positive", i)
		}
	}

	p := &Prescription{
		PatientID:      patientID,
		DoctorName:     in.DoctorName,
		PharmacyID:     in.PharmacyID,
		Status:         StatusPending,
		ImageURL:       in.ImageURL,
		Notes:          in.Notes,
		RefillsAllowed: in.RefillsAllowed,
		ExpiresAt:      in.ExpiresAt,
	}
	for _, it := range in.Items {
		p.Items = append(p.Items, &Item{
			MedicationID:       it.MedicationID,
			Dosage:             it.Dosage,
			QuantityPrescribed: it.Quantity,
		})
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("prescription_id", p.ID.String()).Int("items", len(p.Items)).Msg("prescription submitted")
	return p, nil
}

// Verify marks a pending prescription as checked by a pharmacist.
func (s *Service) Verify(ctx context.Context, id, pharmacistID uuid.UUID, pharmacyID *uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rejectExpired(ctx, p); err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, StatusVerified) {
		return nil, apperr.Conflict("cannot verify a %s prescription", p.Status)
	}

	now := time.Now()
	p.Status = StatusVerified
	p.VerifiedBy = &pharmacistID
	p.VerifiedAt = &now
	if pharmacyID != nil {
		p.PharmacyID = pharmacyID
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("prescription_id", p.ID.String()).Msg("prescription verified")
	return p, nil
}

type FillItemInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// Fill dispenses quantities against a verified prescription. Stock moves and
// the prescription update happen in one transaction; an insufficient-stock
// conflict on any line aborts the whole fill.
func (s *Service) Fill(ctx context.Context, id uuid.UUID, fills []FillItemInput, pharmacistID uuid.UUID) (*Prescription, error) {
	if len(fills) == 0 {
		return nil, apperr.Validation("nothing to fill")
	}

	var out *Prescription
	err := s.inTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.rejectExpired(ctx, p); err != nil {
			return err
		}
		if p.Status != StatusVerified && p.Status != StatusPartiallyFilled {
			return apperr.Conflict("cannot fill a %s prescription", p.Status)
		}

		byID := map[uuid.UUID]*Item{}
		for _, it := range p.Items {
			byID[it.ID] = it
		}

		reference := fmt.Sprintf("rx:%s", p.ID)
		for i, f := range fills {
			it, ok := byID[f.ItemID]
			if !ok {
				return apperr.Validation("fill %d: item does not belong to this prescription", i)
			}
			if f.Quantity <= 0 {
				return apperr.Validation("fill %d: quantity must be positive", i)
			}
			if it.QuantityFilled+f.Quantity > it.QuantityPrescribed {
				return apperr.Validation("fill %d: exceeds prescribed quantity", i)
			}
			if err := s.dispenser.Dispense(ctx, it.MedicationID, f.Quantity, reference, pharmacistID); err != nil {
				return err
			}
			it.QuantityFilled += f.Quantity
		}

		if p.FullyFilled() {
			p.Status = StatusFilled
		} else {
			p.Status = StatusPartiallyFilled
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("prescription_id", out.ID.String()).Str("status", out.Status).Msg("prescription filled")
	return out, nil
}

// Refill re-opens a filled prescription for another dispensing round. Each
// refill consumes one of the allowed refills; exhausted prescriptions are
// rejected with a conflict.
func (s *Service) Refill(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rejectExpired(ctx, p); err != nil {
		return nil, err
	}
	if p.Status != StatusFilled {
		return nil, apperr.Conflict("only a filled prescription can be refilled")
	}
	if p.RefillsUsed >= p.RefillsAllowed {
		return nil, apperr.Conflict("no refills remaining")
	}

	p.RefillsUsed++
	p.Status = StatusVerified
	for _, it := range p.Items {
		it.QuantityFilled = 0
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("prescription_id", p.ID.String()).
		Int("refills_used", p.RefillsUsed).Msg("prescription refilled")
	return p, nil
}

// Cancel voids a prescription. Terminal prescriptions cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, StatusCancelled) {
		return nil, apperr.Conflict("cannot cancel a %s prescription", p.Status)
	}
	p.Status = StatusCancelled
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// rejectExpired lazily marks a prescription expired once its expiry passes.
func (s *Service) rejectExpired(ctx context.Context, p *Prescription) error {
	if p.Status == StatusExpired {
		return apperr.Conflict("prescription has expired")
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(time.Now()) && CanTransition(p.Status, StatusExpired) {
		p.Status = StatusExpired
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return apperr.Conflict("prescription has expired")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	if status == "" {
		status = StatusPending
	}
	if _, ok := transitions[status]; !ok {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}
