package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/notifications"
	"github.com/curex40/curex40/internal/platform/apperr"
)

// Notifier raises low stock alerts for pharmacy staff. The notifications
// service implements it; a nil notifier disables alerts.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, reference *string)
}

// Service enforces ledger rules: every movement has a positive quantity (the
// sign comes from the transaction type), adjustments carry a reason, and no
// movement may take stock negative; underflow is rejected, never clamped.
type Service struct {
	repo   Repository
	notify Notifier
	logger zerolog.Logger
}

func NewService(repo Repository, notify Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		notify: notify,
		logger: logger.With().Str("component", "inventory").Logger(),
	}
}

// MovementInput carries the caller-supplied fields of a stock movement.
type MovementInput struct {
	MedicationID uuid.UUID  `json:"medication_id"`
	PharmacyID   *uuid.UUID `json:"pharmacy_id"`
	Quantity     int        `json:"quantity"`
	UnitCost     *float64   `json:"unit_cost"`
	BatchNumber  *string    `json:"batch_number"`
	Reference    *string    `json:"reference"`
	Reason       *string    `json:"reason"`
}

func (in *MovementInput) validate() error {
	if in.MedicationID == uuid.Nil {
		return apperr.Validation("medication_id is required")
	}
	if in.Quantity <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	return nil
}

func (s *Service) apply(ctx context.Context, in MovementInput, txType string, delta int, performedBy uuid.UUID) (*Transaction, error) {
	t := &Transaction{
		MedicationID:   in.MedicationID,
		PharmacyID:     in.PharmacyID,
		Type:           txType,
		QuantityChange: delta,
		UnitCost:       in.UnitCost,
		BatchNumber:    in.BatchNumber,
		Reference:      in.Reference,
		Reason:         in.Reason,
		PerformedBy:    performedBy,
	}
	low, err := s.repo.Apply(ctx, t)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("medication_id", t.MedicationID.String()).
		Str("type", t.Type).
		Int("change", t.QuantityChange).
		Int("stock", t.QuantityAfter).
		Msg("stock movement")
	if low && delta < 0 {
		s.alertLowStock(ctx, t)
	}
	return t, nil
}

// alertLowStock notifies the staff member behind an outbound movement that
// left stock at or below the reorder threshold. Only outbound movements
// alert; a restock that still sits below the threshold is already known.
func (s *Service) alertLowStock(ctx context.Context, t *Transaction) {
	s.logger.Warn().
		Str("medication_id", t.MedicationID.String()).
		Int("stock", t.QuantityAfter).
		Msg("stock at or below reorder threshold")
	if s.notify == nil {
		return
	}
	ref := t.MedicationID.String()
	s.notify.Notify(ctx, t.PerformedBy, notifications.KindStock, "Low stock",
		fmt.Sprintf("Stock is down to %d units; reorder is due.", t.QuantityAfter), &ref)
}

// AddStock records received stock (type "in").
func (s *Service) AddStock(ctx context.Context, in MovementInput, performedBy uuid.UUID) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, in, TypeIn, in.Quantity, performedBy)
}

// RecordOut records dispensed stock (type "out"). Callers dispensing against
// an order set Reference to the order number.
func (s *Service) RecordOut(ctx context.Context, in MovementInput, performedBy uuid.UUID) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, in, TypeOut, -in.Quantity, performedBy)
}

// RecordReturn restocks units returned from a cancelled order.
func (s *Service) RecordReturn(ctx context.Context, in MovementInput, performedBy uuid.UUID) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, in, TypeReturned, in.Quantity, performedBy)
}

// RecordExpired writes off expired units.
func (s *Service) RecordExpired(ctx context.Context, in MovementInput, performedBy uuid.UUID) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, in, TypeExpired, -in.Quantity, performedBy)
}

// RecordDamaged writes off damaged units.
func (s *Service) RecordDamaged(ctx context.Context, in MovementInput, performedBy uuid.UUID) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, in, TypeDamaged, -in.Quantity, performedBy)
}

// Dispense records an outbound movement on behalf of another domain (order
// confirmation, prescription fill). The reference ties the ledger row back to
// its source document.
func (s *Service) Dispense(ctx context.Context, medicationID uuid.UUID, quantity int, reference string, performedBy uuid.UUID) error {
	_, err := s.RecordOut(ctx, MovementInput{
		MedicationID: medicationID,
		Quantity:     quantity,
		Reference:    &reference,
	}, performedBy)
	return err
}

// Restock returns previously dispensed units to stock, compensating a
// cancelled source document.
func (s *Service) Restock(ctx context.Context, medicationID uuid.UUID, quantity int, reference string, performedBy uuid.UUID) error {
	_, err := s.RecordReturn(ctx, MovementInput{
		MedicationID: medicationID,
		Quantity:     quantity,
		Reference:    &reference,
	}, performedBy)
	return err
}

// AdjustInput is a signed correction applied after a physical count.
type AdjustInput struct {
	MedicationID uuid.UUID  `json:"medication_id"`
	PharmacyID   *uuid.UUID `json:"pharmacy_id"`
	Delta        int        `json:"delta"`
	Reason       *string    `json:"reason"`
}

// AdjustStock applies a signed manual correction. A delta that would take
// stock below zero is rejected with a conflict.
func (s *Service) AdjustStock(ctx context.Context, in AdjustInput, performedBy uuid.UUID) (*Transaction, error) {
	if in.MedicationID == uuid.Nil {
		return nil, apperr.Validation("medication_id is required")
	}
	if in.Delta == 0 {
		return nil, apperr.Validation("delta must be non-zero")
	}
	if in.Reason == nil || *in.Reason == "" {
		return nil, apperr.Validation("reason is required for adjustments")
	}
	return s.apply(ctx, MovementInput{
		MedicationID: in.MedicationID,
		PharmacyID:   in.PharmacyID,
		Reason:       in.Reason,
	}, TypeAdjustment, in.Delta, performedBy)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByMedication(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	return s.repo.ListByMedication(ctx, medicationID, limit, offset)
}

func (s *Service) Summary(ctx context.Context, medicationID uuid.UUID) (*Summary, error) {
	return s.repo.Summary(ctx, medicationID)
}

// Report aggregates movements per type over [from, to). A zero `to` means
// now; a zero `from` means the last 30 days.
func (s *Service) Report(ctx context.Context, from, to time.Time) ([]*ReportRow, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return nil, apperr.Validation("from must be before to")
	}
	return s.repo.Report(ctx, from, to)
}
