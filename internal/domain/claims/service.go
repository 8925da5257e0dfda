package claims

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/orders"
	"github.com/curex40/curex40/internal/platform/apperr"
)

// OrderReader resolves the order a claim is filed against.
type OrderReader interface {
	Get(ctx context.Context, id uuid.UUID) (*orders.Order, error)
}

type Service struct {
	repo   Repository
	orders OrderReader
	logger zerolog.Logger
}

func NewService(repo Repository, orderReader OrderReader, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		orders: orderReader,
		logger: logger.With().Str("component", "claims").Logger(),
	}
}

func newClaimNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("CLM-%s-%s", now.Format("20060102"), suffix)
}

type SubmitInput struct {
	OrderID      uuid.UUID `json:"order_id"`
	PolicyNumber string    `json:"policy_number"`
	Amount       float64   `json:"amount"`
}

// Submit files a claim against a completed order. One claim per order; the
// claimed amount may not exceed the order total.
func (s *Service) Submit(ctx context.Context, patientID uuid.UUID, in SubmitInput) (*Claim, error) {
	if in.OrderID == uuid.Nil {
		return nil, apperr.Validation("order_id is required")
	}
	if in.PolicyNumber == "" {
		return nil, apperr.Validation("policy_number is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}

	o, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.PatientID != patientID {
		return nil, apperr.NotFound("order not found")
	}
	if o.Status != orders.StatusCompleted {
		return nil, apperr.Conflict("claims can only be filed against completed orders")
	}
	if in.Amount > o.Total {
		return nil, apperr.Validation("claimed amount exceeds the order total")
	}

	if _, err := s.repo.GetByOrder(ctx, in.OrderID); err == nil {
		return nil, apperr.Conflict("a claim already exists for this order")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	c := &Claim{
		ClaimNumber:   newClaimNumber(time.Now()),
		OrderID:       in.OrderID,
		PatientID:     patientID,
		PolicyNumber:  in.PolicyNumber,
		Status:        StatusSubmitted,
		AmountClaimed: in.Amount,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("claim_id", c.ID.String()).
		Str("claim_number", c.ClaimNumber).
		Float64("amount", c.AmountClaimed).Msg("claim submitted")
	return c, nil
}

// StartReview picks up a submitted claim for review.
func (s *Service) StartReview(ctx context.Context, id, reviewerID uuid.UUID) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, StatusInReview) {
		return nil, apperr.Conflict("cannot review a %s claim", c.Status)
	}

	now := time.Now()
	c.Status = StatusInReview
	c.ReviewedBy = &reviewerID
	c.ReviewedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

type DecisionInput struct {
	Approve        bool     `json:"approve"`
	AmountApproved *float64 `json:"amount_approved"`
	Reason         *string  `json:"reason"`
}

// Decide settles a submitted or in-review claim; deciding a submitted claim
// directly implies the review. An approval at the full claimed amount becomes
// approved; a lower amount becomes partially approved; a denial requires a
// reason.
func (s *Service) Decide(ctx context.Context, id, reviewerID uuid.UUID, in DecisionInput) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusSubmitted && c.Status != StatusInReview {
		return nil, apperr.Conflict("cannot decide a %s claim", c.Status)
	}

	now := time.Now()
	c.ReviewedBy = &reviewerID
	c.ReviewedAt = &now

	if !in.Approve {
		if in.Reason == nil || *in.Reason == "" {
			return nil, apperr.Validation("a denial requires a reason")
		}
		c.Status = StatusDenied
		c.DenialReason = in.Reason
	} else {
		amount := c.AmountClaimed
		if in.AmountApproved != nil {
			amount = *in.AmountApproved
		}
		if amount <= 0 || amount > c.AmountClaimed {
			return nil, apperr.Validation("approved amount must be positive and at most the claimed amount")
		}
		c.AmountApproved = &amount
		if amount == c.AmountClaimed {
			c.Status = StatusApproved
		} else {
			c.Status = StatusPartiallyApproved
		}
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("claim_id", c.ID.String()).Str("status", c.Status).Msg("claim decided")
	return c, nil
}

// MarkPaid records the payout of an approved claim.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, StatusPaid) {
		return nil, apperr.Conflict("cannot pay a %s claim", c.Status)
	}
	c.Status = StatusPaid
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("claim_id", c.ID.String()).Msg("claim paid")
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	if status == "" {
		status = StatusSubmitted
	}
	if _, ok := transitions[status]; !ok {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}
