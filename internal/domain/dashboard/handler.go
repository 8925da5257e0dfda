package dashboard

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
	"github.com/curex40/curex40/internal/platform/respond"
)

type Handler struct {
	repo   Repository
	scorer Scorer
	logger zerolog.Logger
}

func NewHandler(repo Repository, scorer Scorer, logger zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		scorer: scorer,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/pharmacy", h.pharmacy, auth.RequireRole(auth.RolePharmacist))
	api.GET("/dashboard/government", h.government, auth.RequireRole(auth.RoleGovernment))
	api.GET("/dashboard/insurance", h.insurance, auth.RequireRole(auth.RoleInsurance))
	api.GET("/dashboard/claims/:id/fraud-score", h.fraudScore, auth.RequireRole(auth.RoleInsurance))
	api.GET("/dashboard/medications/:id/demand-score", h.demandScore, auth.RequireRole(auth.RolePharmacist))
}

func (h *Handler) pharmacy(c echo.Context) error {
	s, err := h.repo.PharmacyStats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "pharmacy dashboard retrieved", s)
}

func (h *Handler) government(c echo.Context) error {
	s, err := h.repo.GovernmentStats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "government dashboard retrieved", s)
}

func (h *Handler) insurance(c echo.Context) error {
	s, err := h.repo.InsuranceStats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "insurance dashboard retrieved", s)
}

func (h *Handler) fraudScore(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid claim id")
	}
	score, err := h.scorer.FraudScore(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "fraud score computed", map[string]any{
		"claim_id": id,
		"score":    score,
	})
}

func (h *Handler) demandScore(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid medication id")
	}
	score, err := h.scorer.DemandScore(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, http.StatusOK, "demand score computed", map[string]any{
		"medication_id": id,
		"score":         score,
	})
}
