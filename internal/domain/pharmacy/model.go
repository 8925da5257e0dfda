package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

type Pharmacy struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	LicenseNumber     string    `db:"license_number" json:"license_number"`
	Address           string    `db:"address" json:"address"`
	City              string    `db:"city" json:"city"`
	Phone             *string   `db:"phone" json:"phone,omitempty"`
	Email             *string   `db:"email" json:"email,omitempty"`
	Latitude          *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude         *float64  `db:"longitude" json:"longitude,omitempty"`
	OperatingHours    *string   `db:"operating_hours" json:"operating_hours,omitempty"`
	DeliveryAvailable bool      `db:"delivery_available" json:"delivery_available"`
	// Rating and QualityScore are stored values set by administrators, not
	// computed from anything in the system.
	Rating       float64 `db:"rating" json:"rating"`
	QualityScore float64 `db:"quality_score" json:"quality_score"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
