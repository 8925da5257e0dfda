package cart

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
	"github.com/curex40/curex40/internal/platform/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/cart", auth.RequireRole(auth.RolePatient))
	g.GET("", h.get)
	g.POST("/items", h.addItem)
	g.DELETE("/items/:medicationID", h.removeItem)
	g.DELETE("", h.clear)
}

func (h *Handler) get(c echo.Context) error {
	v, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "cart retrieved", v)
}

func (h *Handler) addItem(c echo.Context) error {
	var body struct {
		MedicationID uuid.UUID `json:"medication_id"`
		Quantity     int       `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("invalid request body")
	}
	v, err := h.svc.AddItem(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), body.MedicationID, body.Quantity)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "item added to cart", v)
}

func (h *Handler) removeItem(c echo.Context) error {
	medID, err := uuid.Parse(c.Param("medicationID"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	v, err := h.svc.RemoveItem(c.Request().Context(),
		auth.UserIDFromContext(c.Request().Context()), medID)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "item removed from cart", v)
}

func (h *Handler) clear(c echo.Context) error {
	if err := h.svc.Clear(c.Request().Context(), auth.UserIDFromContext(c.Request().Context())); err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "cart cleared", nil)
}
