package orders

import (
	"context"
	"errors"

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

const orderCols = `id, order_number, patient_id, pharmacy_id, prescription_id, status,
	subtotal, tax, discount, total, delivery_method, delivery_address,
	prescription_verified, notes, cancel_reason, cancelled_by, confirmed_by,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.PatientID, &o.PharmacyID, &o.PrescriptionID,
		&o.Status, &o.Subtotal, &o.Tax, &o.Discount, &o.Total, &o.DeliveryMethod,
		&o.DeliveryAddress, &o.PrescriptionVerified, &o.Notes,
		&o.CancelReason, &o.CancelledBy, &o.ConfirmedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("order not found")
	}
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		o.ID = uuid.New()
		_, err := q.Exec(ctx, `
			INSERT INTO orders (id, order_number, patient_id, pharmacy_id, prescription_id,
				status, subtotal, tax, discount, total, delivery_method, delivery_address, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			o.ID, o.OrderNumber, o.PatientID, o.PharmacyID, o.PrescriptionID,
			o.Status, o.Subtotal, o.Tax, o.Discount, o.Total,
			o.DeliveryMethod, o.DeliveryAddress, o.Notes)
		if err != nil {
			return err
		}
		for _, it := range o.Items {
			it.ID = uuid.New()
			it.OrderID = o.ID
			if _, err := q.Exec(ctx, `
				INSERT INTO order_items (id, order_id, medication_id, name, unit_price,
					quantity, fulfilled, substitute_for)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				it.ID, it.OrderID, it.MedicationID, it.Name, it.UnitPrice,
				it.Quantity, it.Fulfilled, it.SubstituteFor); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repoPG) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, order_id, medication_id, name, unit_price, quantity, fulfilled, substitute_for
		FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MedicationID, &it.Name,
			&it.UnitPrice, &it.Quantity, &it.Fulfilled, &it.SubstituteFor); err != nil {
			return err
		}
		o.Items = append(o.Items, &it)
	}
	return rows.Err()
}

func (r *repoPG) Update(ctx context.Context, o *Order) error {
	return r.update(ctx, o, "")
}

// Transition guards against concurrent status moves: the UPDATE only matches
// while the row still holds the status the caller read, so of two racing
// confirms exactly one dispenses and the other gets a conflict.
func (r *repoPG) Transition(ctx context.Context, o *Order, from string) error {
	return r.update(ctx, o, from)
}

func (r *repoPG) update(ctx context.Context, o *Order, from string) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		where := `id = $1`
		args := []interface{}{
			o.ID, o.Status, o.PharmacyID, o.Subtotal, o.Tax, o.Discount, o.Total,
			o.PrescriptionVerified, o.Notes, o.CancelReason, o.CancelledBy, o.ConfirmedBy,
		}
		if from != "" {
			where += ` AND status = $13`
			args = append(args, from)
		}
		tag, err := q.Exec(ctx, `
			UPDATE orders SET status=$2, pharmacy_id=$3, subtotal=$4, tax=$5, discount=$6,
				total=$7, prescription_verified=$8, notes=$9, cancel_reason=$10,
				cancelled_by=$11, confirmed_by=$12, updated_at=NOW()
			WHERE `+where, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			if from == "" {
				return apperr.NotFound("order not found")
			}
			var exists bool
			if err := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("order not found")
			}
			return apperr.Conflict("order is no longer %s", from)
		}
		for _, it := range o.Items {
			if _, err := q.Exec(ctx, `
				UPDATE order_items SET medication_id=$2, name=$3, unit_price=$4,
					quantity=$5, fulfilled=$6, substitute_for=$7
				WHERE id = $1`,
				it.ID, it.MedicationID, it.Name, it.UnitPrice,
				it.Quantity, it.Fulfilled, it.SubstituteFor); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return r.list(ctx, `patient_id = $1`, patientID, limit, offset)
}

func (r *repoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Order, int, error) {
	return r.list(ctx, `status = $1`, status, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE `+where+`
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, o := range items {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}
