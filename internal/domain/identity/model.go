package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account on the platform. PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         string     `db:"role" json:"role"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	PharmacyID   *uuid.UUID `db:"pharmacy_id" json:"pharmacy_id,omitempty"`

	// Healthcare fields, set on patient accounts.
	InsuranceProvider   *string `db:"insurance_provider" json:"insurance_provider,omitempty"`
	InsuranceMemberID   *string `db:"insurance_member_id" json:"insurance_member_id,omitempty"`
	MedicalRecordNumber *string `db:"medical_record_number" json:"medical_record_number,omitempty"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
