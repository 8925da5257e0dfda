package orders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/cart"
	"github.com/curex40/curex40/internal/domain/catalog"
	"github.com/curex40/curex40/internal/domain/notifications"
	"github.com/curex40/curex40/internal/platform/apperr"
)

// StockMover moves stock through the inventory ledger on behalf of orders.
// The inventory service implements it.
type StockMover interface {
	Dispense(ctx context.Context, medicationID uuid.UUID, quantity int, reference string, performedBy uuid.UUID) error
	Restock(ctx context.Context, medicationID uuid.UUID, quantity int, reference string, performedBy uuid.UUID) error
}

// CartReader gives checkout access to the patient's priced cart.
type CartReader interface {
	Get(ctx context.Context, patientID uuid.UUID) (*cart.View, error)
	Clear(ctx context.Context, patientID uuid.UUID) error
}

// CatalogReader resolves medications for substitutions.
type CatalogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Medication, error)
}

// Notifier pushes status updates to the patient's in-app feed. The
// notifications service implements it; a nil notifier disables pushes.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, reference *string)
}

// TxRunner runs fn atomically; production wiring backs it with a database
// transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo    Repository
	stock   StockMover
	carts   CartReader
	catalog CatalogReader
	notify  Notifier
	inTx    TxRunner
	taxRate float64
	logger  zerolog.Logger
}

func NewService(repo Repository, stock StockMover, carts CartReader, catalogReader CatalogReader,
	notify Notifier, inTx TxRunner, taxRate float64, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		stock:   stock,
		carts:   carts,
		catalog: catalogReader,
		notify:  notify,
		inTx:    inTx,
		taxRate: taxRate,
		logger:  logger.With().Str("component", "orders").Logger(),
	}
}

func (s *Service) notifyPatient(ctx context.Context, o *Order, title, body string) {
	if s.notify == nil {
		return
	}
	ref := o.OrderNumber
	s.notify.Notify(ctx, o.PatientID, notifications.KindOrder, title, body, &ref)
}

// newOrderNumber builds a human-readable order reference. Uniqueness comes
// from the random suffix; the date prefix is for phone support.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type CheckoutInput struct {
	PharmacyID      *uuid.UUID `json:"pharmacy_id"`
	PrescriptionID  *uuid.UUID `json:"prescription_id"`
	DeliveryMethod  string     `json:"delivery_method"`
	DeliveryAddress *string    `json:"delivery_address"`
	Notes           *string    `json:"notes"`
}

// Checkout turns the patient's cart into a pending order, snapshotting names
// and prices, and clears the cart. Stock is not touched yet; that happens at
// confirmation.
func (s *Service) Checkout(ctx context.Context, patientID uuid.UUID, in CheckoutInput) (*Order, error) {
	if in.DeliveryMethod == "" {
		in.DeliveryMethod = DeliveryPickup
	}
	if in.DeliveryMethod != DeliveryPickup && in.DeliveryMethod != DeliveryDelivery {
		return nil, apperr.Validation("unknown delivery method %q", in.DeliveryMethod)
	}
	if in.DeliveryMethod == DeliveryDelivery && (in.DeliveryAddress == nil || *in.DeliveryAddress == "") {
		return nil, apperr.Validation("delivery orders need a delivery address")
	}

	var out *Order
	err := s.inTx(ctx, func(ctx context.Context) error {
		view, err := s.carts.Get(ctx, patientID)
		if err != nil {
			return err
		}
		if len(view.Lines) == 0 {
			return apperr.Validation("cart is empty")
		}

		o := &Order{
			OrderNumber:     newOrderNumber(time.Now()),
			PatientID:       patientID,
			PharmacyID:      in.PharmacyID,
			PrescriptionID:  in.PrescriptionID,
			Status:          StatusPending,
			DeliveryMethod:  in.DeliveryMethod,
			DeliveryAddress: in.DeliveryAddress,
			Notes:           in.Notes,
		}
		for _, line := range view.Lines {
			if line.PrescriptionRequired && in.PrescriptionID == nil {
				return apperr.Validation("%s requires a prescription", line.Name)
			}
			o.Items = append(o.Items, &Item{
				MedicationID: line.MedicationID,
				Name:         line.Name,
				UnitPrice:    line.UnitPrice,
				Quantity:     line.Quantity,
			})
			o.Subtotal += line.LineTotal
		}
		o.Subtotal = round2(o.Subtotal)
		o.Tax = round2(o.Subtotal * s.taxRate)
		o.Total = round2(o.Subtotal + o.Tax - o.Discount)

		if err := s.repo.Create(ctx, o); err != nil {
			return err
		}
		if err := s.carts.Clear(ctx, patientID); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", out.ID.String()).
		Str("order_number", out.OrderNumber).
		Float64("total", out.Total).Msg("order placed")
	return out, nil
}

// Confirm accepts a pending order and dispenses every line through the
// inventory ledger in one transaction. If any line lacks stock the whole
// confirmation rolls back and the order stays pending. The write is
// conditional on the order still being pending, so two racing confirms
// dispense stock exactly once.
func (s *Service) Confirm(ctx context.Context, id, pharmacistID uuid.UUID, pharmacyID *uuid.UUID) (*Order, error) {
	var out *Order
	err := s.inTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, StatusConfirmed) {
			return apperr.Conflict("cannot confirm a %s order", o.Status)
		}
		from := o.Status

		for _, it := range o.Items {
			if err := s.stock.Dispense(ctx, it.MedicationID, it.Quantity, o.OrderNumber, pharmacistID); err != nil {
				return err
			}
		}

		o.Status = StatusConfirmed
		o.ConfirmedBy = &pharmacistID
		if o.PrescriptionID != nil {
			o.PrescriptionVerified = true
		}
		if pharmacyID != nil {
			o.PharmacyID = pharmacyID
		}
		if err := s.repo.Transition(ctx, o, from); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", out.ID.String()).Msg("order confirmed")
	s.notifyPatient(ctx, out, "Order confirmed",
		fmt.Sprintf("Order %s was confirmed and is being prepared.", out.OrderNumber))
	return out, nil
}

// Advance moves a confirmed order one step along the fulfilment pipeline.
// Backward moves and status skips are rejected.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, to string) (*Order, error) {
	if to == StatusConfirmed || to == StatusCancelled {
		return nil, apperr.Validation("use the confirm or cancel endpoint")
	}
	if _, ok := transitions[to]; !ok {
		return nil, apperr.Validation("unknown status %q", to)
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, apperr.Conflict("cannot move a %s order to %s", o.Status, to)
	}
	from := o.Status

	o.Status = to
	if err := s.repo.Transition(ctx, o, from); err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", o.ID.String()).Str("status", to).Msg("order advanced")
	s.notifyPatient(ctx, o, "Order update",
		fmt.Sprintf("Order %s is now %s.", o.OrderNumber, to))
	return o, nil
}

// Cancel voids an order. When stock was already dispensed (any status past
// pending) each line is returned to inventory in the same transaction.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string, actorID uuid.UUID) (*Order, error) {
	var out *Order
	err := s.inTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, StatusCancelled) {
			return apperr.Conflict("cannot cancel a %s order", o.Status)
		}
		from := o.Status

		if o.Status != StatusPending {
			for _, it := range o.Items {
				if err := s.stock.Restock(ctx, it.MedicationID, it.Quantity, o.OrderNumber, actorID); err != nil {
					return err
				}
			}
		}

		o.Status = StatusCancelled
		o.CancelledBy = &actorID
		if reason != "" {
			o.CancelReason = &reason
		}
		if err := s.repo.Transition(ctx, o, from); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", out.ID.String()).Str("reason", reason).Msg("order cancelled")
	body := fmt.Sprintf("Order %s was cancelled.", out.OrderNumber)
	if reason != "" {
		body = fmt.Sprintf("Order %s was cancelled: %s.", out.OrderNumber, reason)
	}
	s.notifyPatient(ctx, out, "Order cancelled", body)
	return out, nil
}

// FulfillItem marks one line as packed. Only meaningful while the order is
// being prepared.
func (s *Service) FulfillItem(ctx context.Context, orderID, itemID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusConfirmed && o.Status != StatusPreparing {
		return nil, apperr.Conflict("cannot fulfil items on a %s order", o.Status)
	}

	found := false
	for _, it := range o.Items {
		if it.ID == itemID {
			it.Fulfilled = true
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFound("order item not found")
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SubstituteItem swaps a line for an equivalent medication before the order
// is confirmed, repricing the line and the order totals. The original
// medication id is kept on the line for the patient's records.
func (s *Service) SubstituteItem(ctx context.Context, orderID, itemID, newMedicationID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, apperr.Conflict("substitutions are only allowed before confirmation")
	}

	m, err := s.catalog.GetByID(ctx, newMedicationID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, apperr.Validation("substitute medication is not available")
	}

	var target *Item
	for _, it := range o.Items {
		if it.ID == itemID {
			target = it
			break
		}
	}
	if target == nil {
		return nil, apperr.NotFound("order item not found")
	}
	if target.MedicationID == newMedicationID {
		return nil, apperr.Validation("substitute must differ from the original")
	}

	original := target.MedicationID
	target.SubstituteFor = &original
	target.MedicationID = m.ID
	target.Name = m.Name
	target.UnitPrice = m.Price

	o.Subtotal = 0
	for _, it := range o.Items {
		o.Subtotal += it.UnitPrice * float64(it.Quantity)
	}
	o.Subtotal = round2(o.Subtotal)
	o.Tax = round2(o.Subtotal * s.taxRate)
	o.Total = round2(o.Subtotal + o.Tax - o.Discount)

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", o.ID.String()).
		Str("item_id", itemID.String()).
		Str("substitute", m.ID.String()).Msg("order item substituted")
	return o, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Order, int, error) {
	if status == "" {
		status = StatusPending
	}
	if _, ok := transitions[status]; !ok {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}
