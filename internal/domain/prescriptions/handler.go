package prescriptions

import (
	"context"
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
	patient := api.Group("/prescriptions", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	patient.POST("", h.create)
	patient.GET("/mine", h.listMine)
	patient.POST("/:id/refill", h.refill)

	shared := api.Group("/prescriptions", auth.RequireRole(
		auth.RolePatient, auth.RoleDoctor, auth.RolePharmacist))
	shared.GET("/:id", h.get)
	shared.POST("/:id/cancel", h.cancel)

	staff := api.Group("/prescriptions", auth.RequireRole(auth.RolePharmacist))
	staff.GET("", h.listByStatus)
	staff.POST("/:id/verify", h.verify)
	staff.POST("/:id/fill", h.fill)
}

func (h *Handler) create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	patientID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.Create(c.Request().Context(), patientID, in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "prescription submitted", p)
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid prescription id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	// Patients may only read their own prescriptions.
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RolePatient && p.PatientID != auth.UserIDFromContext(ctx) {
		return apperr.NotFound("prescription not found")
	}
	return respond.OK(c, http.StatusOK, "prescription retrieved", p)
}

func (h *Handler) listMine(c echo.Context) error {
	p := pagination.FromContext(c)
	patientID := auth.UserIDFromContext(c.Request().Context())
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "prescriptions retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) listByStatus(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByStatus(c.Request().Context(), c.QueryParam("status"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "prescriptions retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) verify(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid prescription id")
	}
	var body struct {
		PharmacyID *uuid.UUID `json:"pharmacy_id"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}
	pharmacistID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.Verify(c.Request().Context(), id, pharmacistID, body.PharmacyID)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "prescription verified", p)
}

func (h *Handler) fill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid prescription id")
	}
	var body struct {
		Items []FillItemInput `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}
	pharmacistID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.Fill(c.Request().Context(), id, body.Items, pharmacistID)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "prescription filled", p)
}

func (h *Handler) refill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid prescription id")
	}

	// Patients may only refill their own prescriptions.
	ctx := c.Request().Context()
	if err := h.checkOwnership(ctx, id); err != nil {
		return err
	}

	p, err := h.svc.Refill(ctx, id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "prescription refilled", p)
}

func (h *Handler) cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid prescription id")
	}

	// Patients may only cancel their own prescriptions.
	ctx := c.Request().Context()
	if err := h.checkOwnership(ctx, id); err != nil {
		return err
	}

	p, err := h.svc.Cancel(ctx, id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "prescription cancelled", p)
}

// checkOwnership hides other patients' prescriptions from patient callers,
// answering not-found rather than forbidden so ids cannot be probed.
func (h *Handler) checkOwnership(ctx context.Context, id uuid.UUID) error {
	if auth.RoleFromContext(ctx) != auth.RolePatient {
		return nil
	}
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.PatientID != auth.UserIDFromContext(ctx) {
		return apperr.NotFound("prescription not found")
	}
	return nil
}
