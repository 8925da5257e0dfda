package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types. The ledger is append-only; stock corrections are new
// rows, never edits.
const (
	TypeIn         = "in"         // stock received from a supplier
	TypeOut        = "out"        // dispensed against an order
	TypeAdjustment = "adjustment" // manual correction after a count
	TypeTransfer   = "transfer"   // moved between pharmacy locations
	TypeExpired    = "expired"    // written off past expiry
	TypeDamaged    = "damaged"    // written off as damaged
	TypeReturned   = "returned"   // restocked from a cancelled order
)

// ValidType reports whether t is a known transaction type.
func ValidType(t string) bool {
	switch t {
	case TypeIn, TypeOut, TypeAdjustment, TypeTransfer, TypeExpired, TypeDamaged, TypeReturned:
		return true
	}
	return false
}

// Transaction is one ledger entry. Every stock movement records the level
// before and after, so QuantityAfter = QuantityBefore + QuantityChange holds
// for every row and the medication's stock equals the QuantityAfter of its
// most recent row.
type Transaction struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	MedicationID   uuid.UUID  `db:"medication_id" json:"medication_id"`
	PharmacyID     *uuid.UUID `db:"pharmacy_id" json:"pharmacy_id,omitempty"`
	Type           string     `db:"type" json:"type"`
	QuantityChange int        `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int        `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int        `db:"quantity_after" json:"quantity_after"`
	UnitCost       *float64   `db:"unit_cost" json:"unit_cost,omitempty"`
	BatchNumber    *string    `db:"batch_number" json:"batch_number,omitempty"`
	Reference      *string    `db:"reference" json:"reference,omitempty"`
	Reason         *string    `db:"reason" json:"reason,omitempty"`
	PerformedBy    uuid.UUID  `db:"performed_by" json:"performed_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Summary aggregates a medication's ledger.
type Summary struct {
	MedicationID      uuid.UUID  `json:"medication_id"`
	CurrentStock      int        `json:"current_stock"`
	TotalIn           int        `json:"total_in"`
	TotalOut          int        `json:"total_out"`
	TransactionCount  int        `json:"transaction_count"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
}

// ReportRow is one line of the movement report: units moved per transaction
// type over a period.
type ReportRow struct {
	Type      string `json:"type"`
	Count     int    `json:"count"`
	TotalUnits int   `json:"total_units"`
}
