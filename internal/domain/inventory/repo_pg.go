package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const txCols = `id, medication_id, pharmacy_id, type, quantity_change, quantity_before,
	quantity_after, unit_cost, batch_number, reference, reason, performed_by, created_at`

func scanTx(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.MedicationID, &t.PharmacyID, &t.Type, &t.QuantityChange,
		&t.QuantityBefore, &t.QuantityAfter, &t.UnitCost, &t.BatchNumber,
		&t.Reference, &t.Reason, &t.PerformedBy, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("inventory transaction not found")
	}
	return &t, err
}

// Apply moves stock and appends the ledger row in one database transaction.
// The conditional UPDATE is the concurrency guard: two simultaneous
// dispenses of the last unit serialize on the row lock, and the loser's
// WHERE clause no longer matches, so it gets a conflict instead of driving
// stock negative.
func (r *repoPG) Apply(ctx context.Context, t *Transaction) (bool, error) {
	var low bool
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		var after, minStock int
		err := q.QueryRow(ctx, `
			UPDATE medications
			SET stock = stock + $2, updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL AND stock + $2 >= 0
			RETURNING stock, min_stock`,
			t.MedicationID, t.QuantityChange).Scan(&after, &minStock)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM medications WHERE id = $1 AND deleted_at IS NULL)`,
				t.MedicationID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("medication not found")
			}
			return apperr.Conflict("insufficient stock for medication %s", t.MedicationID)
		}
		if err != nil {
			return err
		}

		t.ID = uuid.New()
		t.QuantityAfter = after
		t.QuantityBefore = after - t.QuantityChange
		t.CreatedAt = time.Now()
		low = after <= minStock

		_, err = q.Exec(ctx, `
			INSERT INTO inventory_transactions (id, medication_id, pharmacy_id, type,
				quantity_change, quantity_before, quantity_after,
				unit_cost, batch_number, reference, reason, performed_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			t.ID, t.MedicationID, t.PharmacyID, t.Type,
			t.QuantityChange, t.QuantityBefore, t.QuantityAfter,
			t.UnitCost, t.BatchNumber, t.Reference, t.Reason, t.PerformedBy, t.CreatedAt)
		return err
	})
	return low, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return scanTx(r.conn(ctx).QueryRow(ctx,
		`SELECT `+txCols+` FROM inventory_transactions WHERE id = $1`, id))
}

func (r *repoPG) ListByMedication(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_transactions WHERE medication_id = $1`,
		medicationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Creation order, so a full listing replays the ledger front to back.
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+txCols+` FROM inventory_transactions
		 WHERE medication_id = $1
		 ORDER BY created_at, id
		 LIMIT $2 OFFSET $3`,
		medicationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Summary(ctx context.Context, medicationID uuid.UUID) (*Summary, error) {
	var s Summary
	s.MedicationID = medicationID
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT m.stock,
			COALESCE(SUM(t.quantity_change) FILTER (WHERE t.quantity_change > 0), 0),
			COALESCE(-SUM(t.quantity_change) FILTER (WHERE t.quantity_change < 0), 0),
			COUNT(t.id),
			MAX(t.created_at)
		FROM medications m
		LEFT JOIN inventory_transactions t ON t.medication_id = m.id
		WHERE m.id = $1 AND m.deleted_at IS NULL
		GROUP BY m.stock`,
		medicationID).Scan(&s.CurrentStock, &s.TotalIn, &s.TotalOut, &s.TransactionCount, &s.LastTransactionAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medication not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Report(ctx context.Context, from, to time.Time) ([]*ReportRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT type, COUNT(*), SUM(ABS(quantity_change))
		FROM inventory_transactions
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY type
		ORDER BY type`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.Type, &row.Count, &row.TotalUnits); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}
