package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

func (r *repoPG) GetOrCreate(ctx context.Context, patientID uuid.UUID) (*Cart, error) {
	var c Cart
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, patient_id, created_at, updated_at FROM carts WHERE patient_id = $1`,
		patientID).Scan(&c.ID, &c.PatientID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		c = Cart{ID: uuid.New(), PatientID: patientID}
		err = r.conn(ctx).QueryRow(ctx, `
			INSERT INTO carts (id, patient_id) VALUES ($1, $2)
			ON CONFLICT (patient_id) DO UPDATE SET updated_at = carts.updated_at
			RETURNING id, created_at, updated_at`,
			c.ID, patientID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, cart_id, medication_id, quantity, added_at
		FROM cart_items WHERE cart_id = $1 ORDER BY added_at`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.MedicationID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, &it)
	}
	return &c, rows.Err()
}

func (r *repoPG) UpsertItem(ctx context.Context, cartID, medicationID uuid.UUID, quantity int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, medication_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, medication_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		uuid.New(), cartID, medicationID, quantity)
	return err
}

func (r *repoPG) RemoveItem(ctx context.Context, cartID, medicationID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND medication_id = $2`,
		cartID, medicationID)
	return err
}

func (r *repoPG) Clear(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
