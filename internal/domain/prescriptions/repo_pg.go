package prescriptions

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

const rxCols = `id, patient_id, doctor_name, pharmacy_id, status, image_url, notes,
	refills_allowed, refills_used, verified_by, verified_at, expires_at, created_at, updated_at`

func scanRx(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorName, &p.PharmacyID, &p.Status,
		&p.ImageURL, &p.Notes, &p.RefillsAllowed, &p.RefillsUsed,
		&p.VerifiedBy, &p.VerifiedAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prescription not found")
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		p.ID = uuid.New()
		_, err := q.Exec(ctx, `
			INSERT INTO prescriptions (id, patient_id, doctor_name, pharmacy_id, status,
				image_url, notes, refills_allowed, refills_used, expires_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			p.ID, p.PatientID, p.DoctorName, p.PharmacyID, p.Status,
			p.ImageURL, p.Notes, p.RefillsAllowed, p.RefillsUsed, p.ExpiresAt)
		if err != nil {
			return err
		}
		for _, it := range p.Items {
			it.ID = uuid.New()
			it.PrescriptionID = p.ID
			if _, err := q.Exec(ctx, `
				INSERT INTO prescription_items (id, prescription_id, medication_id, dosage,
					quantity_prescribed, quantity_filled)
				VALUES ($1,$2,$3,$4,$5,$6)`,
				it.ID, it.PrescriptionID, it.MedicationID, it.Dosage,
				it.QuantityPrescribed, it.QuantityFilled); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanRx(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) loadItems(ctx context.Context, p *Prescription) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, medication_id, dosage, quantity_prescribed, quantity_filled
		FROM prescription_items WHERE prescription_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.MedicationID, &it.Dosage,
			&it.QuantityPrescribed, &it.QuantityFilled); err != nil {
			return err
		}
		p.Items = append(p.Items, &it)
	}
	return rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		tag, err := q.Exec(ctx, `
			UPDATE prescriptions SET status=$2, pharmacy_id=$3, notes=$4,
				refills_used=$5, verified_by=$6, verified_at=$7, updated_at=NOW()
			WHERE id = $1`,
			p.ID, p.Status, p.PharmacyID, p.Notes, p.RefillsUsed, p.VerifiedBy, p.VerifiedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("prescription not found")
		}
		for _, it := range p.Items {
			if _, err := q.Exec(ctx,
				`UPDATE prescription_items SET quantity_filled = $2 WHERE id = $1`,
				it.ID, it.QuantityFilled); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, `patient_id = $1`, patientID, limit, offset)
}

func (r *repoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, `status = $1`, status, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE `+where+`
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanRx(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range items {
		if err := r.loadItems(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}
