package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
)

func record(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not envelope JSON: %v", err)
	}
	return rec, env
}

func TestOKEnvelope(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return OK(c, http.StatusCreated, "created", map[string]string{"id": "x"})
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !env.Success || env.Status != http.StatusCreated || env.Message != "created" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestErrorEnvelope_ConflictKind(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return apperr.Conflict("insufficient stock")
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if env.Success || env.Message != "insufficient stock" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestErrorEnvelope_InternalHidesDetail(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return errors.New("pq: connection refused")
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if env.Message != "internal server error" {
		t.Errorf("internal detail leaked: %q", env.Message)
	}
}

func TestErrorEnvelope_EchoHTTPError(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if env.Success || env.Status != http.StatusNotFound {
		t.Errorf("unexpected envelope: %+v", env)
	}
}
