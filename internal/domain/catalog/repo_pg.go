package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const medCols = `id, name, generic_name, description, category, dosage_form, strength,
	manufacturer, price, stock, min_stock, max_stock, prescription_required,
	batch_number, expiry_date, active, created_at, updated_at, deleted_at`

func scanMed(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.Description, &m.Category,
		&m.DosageForm, &m.Strength, &m.Manufacturer, &m.Price, &m.Stock,
		&m.MinStock, &m.MaxStock, &m.PrescriptionRequired,
		&m.BatchNumber, &m.ExpiryDate, &m.Active, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medication not found")
	}
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medications (id, name, generic_name, description, category, dosage_form,
			strength, manufacturer, price, stock, min_stock, max_stock,
			prescription_required, batch_number, expiry_date, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		m.ID, m.Name, m.GenericName, m.Description, m.Category, m.DosageForm,
		m.Strength, m.Manufacturer, m.Price, m.Stock, m.MinStock, m.MaxStock,
		m.PrescriptionRequired, m.BatchNumber, m.ExpiryDate, m.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medCols+` FROM medications WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repoPG) Update(ctx context.Context, m *Medication) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medications SET name=$2, generic_name=$3, description=$4, category=$5,
			dosage_form=$6, strength=$7, manufacturer=$8, price=$9,
			min_stock=$10, max_stock=$11, prescription_required=$12,
			batch_number=$13, expiry_date=$14, active=$15, updated_at=NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		m.ID, m.Name, m.GenericName, m.Description, m.Category,
		m.DosageForm, m.Strength, m.Manufacturer, m.Price,
		m.MinStock, m.MaxStock, m.PrescriptionRequired,
		m.BatchNumber, m.ExpiryDate, m.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medication not found")
	}
	return nil
}

// SoftDelete marks the row deleted. Referenced catalog rows are never hard
// deleted, so ledger and order history stay resolvable.
func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medications SET deleted_at = NOW(), active = FALSE WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medication not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Medication, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	idx := 1

	if v, ok := params["name"]; ok {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR generic_name ILIKE $%d)", idx, idx))
		args = append(args, "%"+v+"%")
		idx++
	}
	if v, ok := params["category"]; ok {
		where = append(where, fmt.Sprintf("category = $%d", idx))
		args = append(args, v)
		idx++
	}
	if v, ok := params["prescription_required"]; ok {
		where = append(where, fmt.Sprintf("prescription_required = $%d", idx))
		args = append(args, v == "true")
		idx++
	}
	if _, ok := params["include_inactive"]; !ok {
		where = append(where, "active = TRUE")
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medications WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM medications WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
			medCols, clause, idx, idx+1), dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Medication
	for rows.Next() {
		m, err := scanMed(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) LowStock(ctx context.Context) ([]*Medication, error) {
	return r.queryList(ctx,
		`SELECT `+medCols+` FROM medications
		 WHERE deleted_at IS NULL AND active = TRUE AND stock <= min_stock
		 ORDER BY stock - min_stock`)
}

func (r *repoPG) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Medication, error) {
	return r.queryList(ctx,
		`SELECT `+medCols+` FROM medications
		 WHERE deleted_at IS NULL AND active = TRUE
		   AND expiry_date IS NOT NULL AND expiry_date <= $1
		 ORDER BY expiry_date`, cutoff)
}

func (r *repoPG) queryList(ctx context.Context, sql string, args ...interface{}) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Medication
	for rows.Next() {
		m, err := scanMed(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
