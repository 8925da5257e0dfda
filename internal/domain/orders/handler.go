package orders

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
	patient := api.Group("/orders", auth.RequireRole(auth.RolePatient))
	patient.POST("/checkout", h.checkout)
	patient.GET("/mine", h.listMine)

	shared := api.Group("/orders", auth.RequireRole(auth.RolePatient, auth.RolePharmacist))
	shared.GET("/:id", h.get)
	shared.POST("/:id/cancel", h.cancel)

	staff := api.Group("/orders", auth.RequireRole(auth.RolePharmacist))
	staff.GET("", h.listByStatus)
	staff.POST("/:id/confirm", h.confirm)
	staff.POST("/:id/status", h.advance)
	staff.POST("/:id/items/:itemID/fulfill", h.fulfillItem)
	staff.POST("/:id/items/:itemID/substitute", h.substituteItem)
}

func (h *Handler) checkout(c echo.Context) error {
	var in CheckoutInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	o, err := h.svc.Checkout(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "order placed", o)
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid order id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RolePatient && o.PatientID != auth.UserIDFromContext(ctx) {
		return apperr.NotFound("order not found")
	}
	return respond.OK(c, http.StatusOK, "order retrieved", o)
}

func (h *Handler) listMine(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "orders retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) listByStatus(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByStatus(c.Request().Context(), c.QueryParam("status"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "orders retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid order id")
	}
	var body struct {
		PharmacyID *uuid.UUID `json:"pharmacy_id"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}
	o, err := h.svc.Confirm(c.Request().Context(), id,
		auth.UserIDFromContext(c.Request().Context()), body.PharmacyID)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "order confirmed", o)
}

func (h *Handler) advance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid order id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}
	o, err := h.svc.Advance(c.Request().Context(), id, body.Status)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "order status updated", o)
}

func (h *Handler) cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid order id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}

	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RolePatient {
		o, err := h.svc.Get(ctx, id)
		if err != nil {
			return err
		}
		if o.PatientID != auth.UserIDFromContext(ctx) {
			return apperr.NotFound("order not found")
		}
	}

	o, err := h.svc.Cancel(ctx, id, body.Reason, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "order cancelled", o)
}

func (h *Handler) fulfillItem(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid order id")
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return apperr.Validation("invalid item id")
	}
	o, err := h.svc.FulfillItem(c.Request().Context(), orderID, itemID)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "order item fulfilled", o)
}

func (h *Handler) substituteItem(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid order id")
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return apperr.Validation("invalid item id")
	}
	var body struct {
		MedicationID uuid.UUID `json:"medication_id"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}
	o, err := h.svc.SubstituteItem(c.Request().Context(), orderID, itemID, body.MedicationID)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "order item substituted", o)
}
