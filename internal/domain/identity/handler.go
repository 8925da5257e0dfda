package identity

import (
	"net/http"

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
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)

	me := api.Group("/auth/me", auth.RequireRole(
		auth.RolePatient, auth.RolePharmacist, auth.RoleDoctor,
		auth.RoleGovernment, auth.RoleInsurance))
	me.GET("", h.profile)
	me.PUT("", h.updateProfile)
	me.PUT("/password", h.changePassword)

	admin := api.Group("/users", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.list)
}

func (h *Handler) register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusCreated, "account created", u)
}

func (h *Handler) login(c echo.Context) error {
	var in LoginInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	res, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "login successful", res)
}

func (h *Handler) profile(c echo.Context) error {
	u, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "profile retrieved", u)
}

func (h *Handler) updateProfile(c echo.Context) error {
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "profile updated", u)
}

func (h *Handler) changePassword(c echo.Context) error {
	var in PasswordInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.svc.ChangePassword(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in); err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "password changed", nil)
}

func (h *Handler) list(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("role"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return respond.OKPaged(c, http.StatusOK, "users retrieved", items,
		pagination.NewMeta(total, p.Limit, p.Offset))
}
