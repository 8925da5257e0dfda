// Package favorites lets patients bookmark medications for quick reordering.
package favorites

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/domain/catalog"
	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
	"github.com/curex40/curex40/internal/platform/db"
	"github.com/curex40/curex40/internal/platform/respond"
	"github.com/curex40/curex40/pkg/pagination"
)

type Favorite struct {
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Add(ctx context.Context, patientID, medicationID uuid.UUID) error
	Remove(ctx context.Context, patientID, medicationID uuid.UUID) error
	ListMedicationIDs(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]uuid.UUID, int, error)
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

func (r *repoPG) Add(ctx context.Context, patientID, medicationID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO favorites (patient_id, medication_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		patientID, medicationID)
	return err
}

func (r *repoPG) Remove(ctx context.Context, patientID, medicationID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM favorites WHERE patient_id = $1 AND medication_id = $2`,
		patientID, medicationID)
	return err
}

func (r *repoPG) ListMedicationIDs(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]uuid.UUID, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM favorites WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT medication_id FROM favorites
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}

// CatalogReader resolves favorited medications for display.
type CatalogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Medication, error)
}

type Service struct {
	repo    Repository
	catalog CatalogReader
	logger  zerolog.Logger
}

func NewService(repo Repository, catalogReader CatalogReader, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogReader,
		logger:  logger.With().Str("component", "favorites").Logger(),
	}
}

func (s *Service) Add(ctx context.Context, patientID, medicationID uuid.UUID) error {
	if _, err := s.catalog.GetByID(ctx, medicationID); err != nil {
		return err
	}
	return s.repo.Add(ctx, patientID, medicationID)
}

func (s *Service) Remove(ctx context.Context, patientID, medicationID uuid.UUID) error {
	return s.repo.Remove(ctx, patientID, medicationID)
}

// List returns the favorited medications, skipping ones retired since they
// were bookmarked.
func (s *Service) List(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*catalog.Medication, int, error) {
	ids, total, err := s.repo.ListMedicationIDs(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var meds []*catalog.Medication
	for _, id := range ids {
		m, err := s.catalog.GetByID(ctx, id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return nil, 0, err
		}
		meds = append(meds, m)
	}
	return meds, total, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/favorites", auth.RequireRole(auth.RolePatient))
	g.GET("", h.list)
	g.POST("/:medicationID", h.add)
	g.DELETE("/:medicationID", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	p := pagination.FromContext(c)
	meds, total, err := h.svc.List(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "favorites retrieved", meds,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) add(c echo.Context) error {
	medID, err := uuid.Parse(c.Param("medicationID"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	if err := h.svc.Add(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), medID); err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "favorite added", nil)
}

func (h *Handler) remove(c echo.Context) error {
	medID, err := uuid.Parse(c.Param("medicationID"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	if err := h.svc.Remove(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), medID); err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "favorite removed", nil)
}
