package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists ledger entries. Apply is the only write path: it must
// atomically move the medication's stock by tx.QuantityChange and append the
// ledger row with the observed before/after levels, rejecting any movement
// that would take stock below zero.
type Repository interface {
	// Apply fills in tx.ID, tx.QuantityBefore, tx.QuantityAfter and
	// tx.CreatedAt on success, reporting whether the movement left stock at
	// or below the medication's reorder threshold. It returns a conflict
	// error when the movement would make stock negative and a not-found
	// error when the medication does not exist.
	Apply(ctx context.Context, tx *Transaction) (low bool, err error)

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByMedication(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*Transaction, int, error)
	Summary(ctx context.Context, medicationID uuid.UUID) (*Summary, error)
	Report(ctx context.Context, from, to time.Time) ([]*ReportRow, error)
}
