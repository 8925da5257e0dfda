package cart

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a patient's open shopping cart. One per patient; checkout empties
// it.
type Cart struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []*Item `db:"-" json:"items"`
}

type Item struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CartID       uuid.UUID `db:"cart_id" json:"cart_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	Quantity     int       `db:"quantity" json:"quantity"`
	AddedAt      time.Time `db:"added_at" json:"added_at"`
}
