package orders

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. The lifecycle moves forward only:
//
//	pending -> confirmed -> preparing -> ready -> completed
//
// with cancellation allowed from any non-terminal status. Stock is dispensed
// at confirmation, so cancelling a confirmed or later order puts the units
// back through the inventory ledger.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

// Delivery methods.
const (
	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"
)

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether status admits no further transitions.
func Terminal(status string) bool {
	return len(transitions[status]) == 0
}

type Order struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	OrderNumber          string     `db:"order_number" json:"order_number"`
	PatientID            uuid.UUID  `db:"patient_id" json:"patient_id"`
	PharmacyID           *uuid.UUID `db:"pharmacy_id" json:"pharmacy_id,omitempty"`
	PrescriptionID       *uuid.UUID `db:"prescription_id" json:"prescription_id,omitempty"`
	Status               string     `db:"status" json:"status"`
	Subtotal             float64    `db:"subtotal" json:"subtotal"`
	Tax                  float64    `db:"tax" json:"tax"`
	Discount             float64    `db:"discount" json:"discount"`
	Total                float64    `db:"total" json:"total"`
	DeliveryMethod       string     `db:"delivery_method" json:"delivery_method"`
	DeliveryAddress      *string    `db:"delivery_address" json:"delivery_address,omitempty"`
	PrescriptionVerified bool       `db:"prescription_verified" json:"prescription_verified"`
	Notes                *string    `db:"notes" json:"notes,omitempty"`
	CancelReason         *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy          *uuid.UUID `db:"cancelled_by" json:"cancelled_by,omitempty"`
	ConfirmedBy          *uuid.UUID `db:"confirmed_by" json:"confirmed_by,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`

	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is one order line with the price and name snapshotted at checkout, so
// later catalog edits do not rewrite order history.
type Item struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	OrderID       uuid.UUID  `db:"order_id" json:"order_id"`
	MedicationID  uuid.UUID  `db:"medication_id" json:"medication_id"`
	Name          string     `db:"name" json:"name"`
	UnitPrice     float64    `db:"unit_price" json:"unit_price"`
	Quantity      int        `db:"quantity" json:"quantity"`
	Fulfilled     bool       `db:"fulfilled" json:"fulfilled"`
	SubstituteFor *uuid.UUID `db:"substitute_for" json:"substitute_for,omitempty"`
}
