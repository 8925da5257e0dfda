package catalog

import (
	"net/http"
	"strconv"

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

// RegisterRoutes mounts the catalog endpoints. Browsing is public; anything
// that changes the catalog is pharmacist-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/medications", h.search)
	api.GET("/medications/:id", h.get)

	staff := api.Group("/medications", auth.RequireRole(auth.RolePharmacist))
	staff.POST("", h.create)
	staff.PUT("/:id", h.update)
	staff.DELETE("/:id", h.delete)
	staff.GET("/alerts/low-stock", h.lowStock)
	staff.GET("/alerts/expiring", h.expiring)
}

func (h *Handler) search(c echo.Context) error {
	p := pagination.FromContext(c)

	params := map[string]string{}
	for _, key := range []string{"name", "category", "prescription_required", "include_inactive"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}

	items, total, err := h.svc.Search(c.Request().Context(), params, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "medications retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "medication retrieved", m)
}

func (h *Handler) create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	m, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "medication created", m)
}

func (h *Handler) update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	m, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "medication updated", m)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "medication deleted", nil)
}

func (h *Handler) lowStock(c echo.Context) error {
	items, err := h.svc.LowStock(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "low stock medications retrieved", items)
}

func (h *Handler) expiring(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	items, err := h.svc.ExpiringSoon(c.Request().Context(), days)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "expiring medications retrieved", items)
}
