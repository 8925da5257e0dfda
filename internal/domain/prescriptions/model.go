package prescriptions

import (
	"time"

	"github.com/google/uuid"
)

// Prescription statuses. A prescription moves forward only: pending is
// verified by a pharmacist, then filled in one or more dispensing steps.
// Cancelled and expired are terminal.
const (
	StatusPending         = "pending"
	StatusVerified        = "verified"
	StatusPartiallyFilled = "partially_filled"
	StatusFilled          = "filled"
	StatusCancelled       = "cancelled"
	StatusExpired         = "expired"
)

// transitions lists the permitted status moves. Refill is the one deliberate
// exception: a filled prescription with refills remaining goes back to
// verified.
var transitions = map[string][]string{
	StatusPending:         {StatusVerified, StatusCancelled, StatusExpired},
	StatusVerified:        {StatusPartiallyFilled, StatusFilled, StatusCancelled, StatusExpired},
	StatusPartiallyFilled: {StatusPartiallyFilled, StatusFilled, StatusCancelled},
	StatusFilled:          {StatusVerified},
	StatusCancelled:       nil,
	StatusExpired:         nil,
}

// CanTransition reports whether a prescription may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Prescription struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorName     *string    `db:"doctor_name" json:"doctor_name,omitempty"`
	PharmacyID     *uuid.UUID `db:"pharmacy_id" json:"pharmacy_id,omitempty"`
	Status         string     `db:"status" json:"status"`
	ImageURL       *string    `db:"image_url" json:"image_url,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	RefillsAllowed int        `db:"refills_allowed" json:"refills_allowed"`
	RefillsUsed    int        `db:"refills_used" json:"refills_used"`
	VerifiedBy     *uuid.UUID `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt     *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is one prescribed medication line. QuantityFilled accumulates across
// dispensing steps and never exceeds QuantityPrescribed.
type Item struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PrescriptionID     uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicationID       uuid.UUID `db:"medication_id" json:"medication_id"`
	Dosage             *string   `db:"dosage" json:"dosage,omitempty"`
	QuantityPrescribed int       `db:"quantity_prescribed" json:"quantity_prescribed"`
	QuantityFilled     int       `db:"quantity_filled" json:"quantity_filled"`
}

// FullyFilled reports whether every line has been dispensed in full.
func (p *Prescription) FullyFilled() bool {
	if len(p.Items) == 0 {
		return false
	}
	for _, it := range p.Items {
		if it.QuantityFilled < it.QuantityPrescribed {
			return false
		}
	}
	return true
}

// RefillsRemaining reports how many refills are left.
func (p *Prescription) RefillsRemaining() int {
	return p.RefillsAllowed - p.RefillsUsed
}
