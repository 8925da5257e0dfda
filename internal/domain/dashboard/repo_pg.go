package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curex40/curex40/internal/platform/db"
)

type Repository interface {
	PharmacyStats(ctx context.Context) (*PharmacyStats, error)
	GovernmentStats(ctx context.Context) (*GovernmentStats, error)
	InsuranceStats(ctx context.Context) (*InsuranceStats, error)
}

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

func (r *repoPG) PharmacyStats(ctx context.Context) (*PharmacyStats, error) {
	s := &PharmacyStats{OrdersByStatus: map[string]int{}}
	q := r.conn(ctx)

	rows, err := q.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		s.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = 'completed'`).
		Scan(&s.RevenueCompleted); err != nil {
		return nil, err
	}
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM medications
		WHERE deleted_at IS NULL AND active = TRUE AND stock <= min_stock`).
		Scan(&s.LowStockCount); err != nil {
		return nil, err
	}
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM medications
		WHERE deleted_at IS NULL AND active = TRUE
		  AND expiry_date IS NOT NULL AND expiry_date <= $1`,
		time.Now().AddDate(0, 0, 30)).Scan(&s.ExpiringSoonCount); err != nil {
		return nil, err
	}
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE status = 'pending'`).
		Scan(&s.PendingPrescriptions); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) GovernmentStats(ctx context.Context) (*GovernmentStats, error) {
	s := &GovernmentStats{}
	q := r.conn(ctx)

	if err := q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pharmacies WHERE active),
			(SELECT COUNT(*) FROM medications WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM users WHERE role = 'patient'),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(-SUM(quantity_change), 0) FROM inventory_transactions WHERE type = 'out')`).
		Scan(&s.Pharmacies, &s.Medications, &s.Patients, &s.Orders, &s.UnitsDispensed); err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT m.category, -SUM(t.quantity_change) AS units
		FROM inventory_transactions t
		JOIN medications m ON m.id = t.medication_id
		WHERE t.type = 'out'
		GROUP BY m.category
		ORDER BY units DESC
		LIMIT 10`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Units); err != nil {
			return nil, err
		}
		s.TopCategories = append(s.TopCategories, c)
	}
	return s, rows.Err()
}

func (r *repoPG) InsuranceStats(ctx context.Context) (*InsuranceStats, error) {
	s := &InsuranceStats{ClaimsByStatus: map[string]int{}}
	q := r.conn(ctx)

	rows, err := q.Query(ctx, `SELECT status, COUNT(*) FROM claims GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		s.ClaimsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_claimed), 0), COALESCE(SUM(amount_approved), 0)
		FROM claims`).Scan(&s.TotalClaimed, &s.TotalApproved); err != nil {
		return nil, err
	}
	return s, nil
}
