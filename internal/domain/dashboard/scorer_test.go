package dashboard

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestStaticScorer_Deterministic(t *testing.T) {
	s := NewStaticScorer()
	id := uuid.New()

	a, err := s.FraudScore(context.Background(), id)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	b, err := s.FraudScore(context.Background(), id)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a != b {
		t.Errorf("same id must score the same, got %f and %f", a, b)
	}
}

func TestStaticScorer_Range(t *testing.T) {
	s := NewStaticScorer()
	for i := 0; i < 100; i++ {
		score, err := s.DemandScore(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if score < 0 || score >= 1 {
			t.Fatalf("score out of range: %f", score)
		}
	}
}
