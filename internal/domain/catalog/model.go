package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medications table (drug catalog plus on-hand stock).
// Stock is a denormalized counter kept consistent with the inventory ledger:
// it must always equal the quantity_after of the medication's most recent
// inventory transaction.
type Medication struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	GenericName          *string    `db:"generic_name" json:"generic_name,omitempty"`
	Description          *string    `db:"description" json:"description,omitempty"`
	Category             string     `db:"category" json:"category"`
	DosageForm           *string    `db:"dosage_form" json:"dosage_form,omitempty"`
	Strength             *string    `db:"strength" json:"strength,omitempty"`
	Manufacturer         *string    `db:"manufacturer" json:"manufacturer,omitempty"`
	Price                float64    `db:"price" json:"price"`
	Stock                int        `db:"stock" json:"stock"`
	MinStock             int        `db:"min_stock" json:"min_stock"`
	MaxStock             int        `db:"max_stock" json:"max_stock"`
	PrescriptionRequired bool       `db:"prescription_required" json:"prescription_required"`
	BatchNumber          *string    `db:"batch_number" json:"batch_number,omitempty"`
	ExpiryDate           *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	Active               bool       `db:"active" json:"active"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt            *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// IsLowStock reports whether the medication is at or below its reorder
// threshold.
func (m *Medication) IsLowStock() bool {
	return m.Stock <= m.MinStock
}
