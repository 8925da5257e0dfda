package claims

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses. A claim is reviewed before a decision; only approved or
// partially approved claims can be paid out.
const (
	StatusSubmitted         = "submitted"
	StatusInReview          = "in_review"
	StatusApproved          = "approved"
	StatusPartiallyApproved = "partially_approved"
	StatusDenied            = "denied"
	StatusPaid              = "paid"
)

var transitions = map[string][]string{
	StatusSubmitted:         {StatusInReview, StatusApproved, StatusPartiallyApproved, StatusDenied},
	StatusInReview:          {StatusApproved, StatusPartiallyApproved, StatusDenied},
	StatusApproved:          {StatusPaid},
	StatusPartiallyApproved: {StatusPaid},
	StatusDenied:            nil,
	StatusPaid:              nil,
}

// CanTransition reports whether a claim may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Claim struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ClaimNumber    string     `db:"claim_number" json:"claim_number"`
	OrderID        uuid.UUID  `db:"order_id" json:"order_id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PolicyNumber   string     `db:"policy_number" json:"policy_number"`
	Status         string     `db:"status" json:"status"`
	AmountClaimed  float64    `db:"amount_claimed" json:"amount_claimed"`
	AmountApproved *float64   `db:"amount_approved" json:"amount_approved,omitempty"`
	DenialReason   *string    `db:"denial_reason" json:"denial_reason,omitempty"`
	ReviewedBy     *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
