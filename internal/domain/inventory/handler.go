package inventory

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
	"github.com/curex40/curex40/internal/platform/respond"
	"github.com/curex40/curex40/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the inventory endpoints. All of them are
// pharmacist-only; government reads aggregate numbers through the dashboard
// endpoints, not the raw ledger.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/inventory", auth.RequireRole(auth.RolePharmacist))
	g.POST("/receive", h.movement(func(s *Service) applyFn { return s.AddStock }))
	g.POST("/dispense", h.movement(func(s *Service) applyFn { return s.RecordOut }))
	g.POST("/return", h.movement(func(s *Service) applyFn { return s.RecordReturn }))
	g.POST("/expire", h.movement(func(s *Service) applyFn { return s.RecordExpired }))
	g.POST("/damage", h.movement(func(s *Service) applyFn { return s.RecordDamaged }))
	g.POST("/adjust", h.adjust)
	g.GET("/transactions/:id", h.get)
	g.GET("/medications/:id/transactions", h.listByMedication)
	g.GET("/medications/:id/summary", h.summary)
	g.GET("/report", h.report)
}

type applyFn func(ctx context.Context, in MovementInput, performedBy uuid.UUID) (*Transaction, error)

// movement builds a handler for the five fixed-direction movement endpoints,
// which differ only in the service method they call.
func (h *Handler) movement(pick func(*Service) applyFn) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in MovementInput
		if err := c.Bind(&in); err != nil {
			return apperr.Validation("invalid request body")
		}
		performedBy := auth.UserIDFromContext(c.Request().Context())
		t, err := pick(h.svc)(c.Request().Context(), in, performedBy)
		if err != nil {
			return err
		}
		return respond.OK(c, http.StatusCreated, "stock movement recorded", t)
	}
}

func (h *Handler) adjust(c echo.Context) error {
	var in AdjustInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	performedBy := auth.UserIDFromContext(c.Request().Context())
	t, err := h.svc.AdjustStock(c.Request().Context(), in, performedBy)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "stock adjusted", t)
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid transaction id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "transaction retrieved", t)
}

func (h *Handler) listByMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByMedication(c.Request().Context(), id, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "transactions retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) summary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	s, err := h.svc.Summary(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "inventory summary retrieved", s)
}

func (h *Handler) report(c echo.Context) error {
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperr.Validation("invalid from timestamp, want RFC3339")
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperr.Validation("invalid to timestamp, want RFC3339")
		}
		to = t
	}
	rows, err := h.svc.Report(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "inventory report retrieved", rows)
}
