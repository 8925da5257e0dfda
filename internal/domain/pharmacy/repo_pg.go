package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const pharmacyCols = `id, name, license_number, address, city, phone, email,
	latitude, longitude, operating_hours, delivery_available, rating, quality_score,
	active, created_at, updated_at`

func scanPharmacy(row pgx.Row) (*Pharmacy, error) {
	var p Pharmacy
	err := row.Scan(&p.ID, &p.Name, &p.LicenseNumber, &p.Address, &p.City, &p.Phone,
		&p.Email, &p.Latitude, &p.Longitude, &p.OperatingHours,
		&p.DeliveryAvailable, &p.Rating, &p.QualityScore, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("pharmacy not found")
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Pharmacy) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacies (id, name, license_number, address, city, phone, email,
			latitude, longitude, operating_hours, delivery_available, rating,
			quality_score, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.Name, p.LicenseNumber, p.Address, p.City, p.Phone, p.Email,
		p.Latitude, p.Longitude, p.OperatingHours, p.DeliveryAvailable,
		p.Rating, p.QualityScore, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error) {
	return scanPharmacy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies WHERE id = $1`, id))
}

func (r *repoPG) GetByLicense(ctx context.Context, license string) (*Pharmacy, error) {
	return scanPharmacy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies WHERE license_number = $1`, license))
}

func (r *repoPG) Update(ctx context.Context, p *Pharmacy) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pharmacies SET name=$2, license_number=$3, address=$4, city=$5,
			phone=$6, email=$7, latitude=$8, longitude=$9, operating_hours=$10,
			delivery_available=$11, rating=$12, quality_score=$13, active=$14,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.LicenseNumber, p.Address, p.City,
		p.Phone, p.Email, p.Latitude, p.Longitude, p.OperatingHours,
		p.DeliveryAvailable, p.Rating, p.QualityScore, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("pharmacy not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, city string, activeOnly bool, limit, offset int) ([]*Pharmacy, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	idx := 1

	if city != "" {
		where = append(where, fmt.Sprintf("city ILIKE $%d", idx))
		args = append(args, city)
		idx++
	}
	if activeOnly {
		where = append(where, "active = TRUE")
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM pharmacies WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM pharmacies WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
			pharmacyCols, clause, idx, idx+1), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Pharmacy
	for rows.Next() {
		p, err := scanPharmacy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
