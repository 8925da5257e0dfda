package dashboard

import (
	"context"

	"github.com/google/uuid"
)

// Scorer produces risk and demand scores in [0, 1). The static implementation
// below is a stand-in so dashboards render end to end; a real model service
// can be swapped in behind this interface without touching handlers.
type Scorer interface {
	// FraudScore estimates how suspicious a claim looks.
	FraudScore(ctx context.Context, claimID uuid.UUID) (float64, error)
	// DemandScore estimates restock urgency for a medication.
	DemandScore(ctx context.Context, medicationID uuid.UUID) (float64, error)
}

type staticScorer struct{}

// NewStaticScorer returns a deterministic Scorer: the same id always scores
// the same, which keeps dashboards and tests stable.
func NewStaticScorer() Scorer {
	return staticScorer{}
}

func scoreFromID(id uuid.UUID) float64 {
	// Fold the uuid bytes into a stable value in [0, 1).
	var acc uint32
	for _, b := range id {
		acc = acc*31 + uint32(b)
	}
	return float64(acc%1000) / 1000
}

func (staticScorer) FraudScore(_ context.Context, claimID uuid.UUID) (float64, error) {
	return scoreFromID(claimID), nil
}

func (staticScorer) DemandScore(_ context.Context, medicationID uuid.UUID) (float64, error) {
	return scoreFromID(medicationID), nil
}
