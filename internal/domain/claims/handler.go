package claims

import (
	"net/http"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("/claims", auth.RequireRole(auth.RolePatient))
	patient.POST("", h.submit)
	patient.GET("/mine", h.listMine)

	shared := api.Group("/claims", auth.RequireRole(auth.RolePatient, auth.RoleInsurance))
	shared.GET("/:id", h.get)

	insurer := api.Group("/claims", auth.RequireRole(auth.RoleInsurance))
	insurer.GET("", h.listByStatus)
	insurer.POST("/:id/review", h.startReview)
	insurer.POST("/:id/decision", h.decide)
	insurer.POST("/:id/pay", h.markPaid)
}

func (h *Handler) submit(c echo.Context) error {
	var in SubmitInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	claim, err := h.svc.Submit(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "claim submitted", claim)
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid claim id")
	}
	claim, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RolePatient && claim.PatientID != auth.UserIDFromContext(ctx) {
		return apperr.NotFound("claim not found")
	}
	return respond.OK(c, http.StatusOK, "claim retrieved", claim)
}

func (h *Handler) listMine(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "claims retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) listByStatus(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByStatus(c.Request().Context(), c.QueryParam("status"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "claims retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) startReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid claim id")
	}
	claim, err := h.svc.StartReview(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "claim review started", claim)
}

func (h *Handler) decide(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid claim id")
	}
	var in DecisionInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	claim, err := h.svc.Decide(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "claim decided", claim)
}

func (h *Handler) markPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid claim id")
	}
	claim, err := h.svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "claim paid", claim)
}
