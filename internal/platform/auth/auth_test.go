package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndParseToken(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(testSecret, userID, RolePharmacist, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotID, gotRole, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != userID {
		t.Errorf("expected user id %s, got %s", userID, gotID)
	}
	if gotRole != RolePharmacist {
		t.Errorf("expected role pharmacist, got %s", gotRole)
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken(testSecret, uuid.New(), RolePatient, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := ParseToken(testSecret, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := IssueToken(testSecret, uuid.New(), RolePatient, time.Hour)
	if _, _, err := ParseToken([]byte("another-secret-another-secret-xx"), token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, authorization string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return c, handler(c)
}

func TestMiddleware_SetsIdentity(t *testing.T) {
	userID := uuid.New()
	token, _ := IssueToken(testSecret, userID, RoleDoctor, time.Hour)

	c, err := runMiddleware(t, Middleware(testSecret), "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if UserIDFromContext(c.Request().Context()) != userID {
		t.Error("expected user id in context")
	}
	if RoleFromContext(c.Request().Context()) != RoleDoctor {
		t.Error("expected role in context")
	}
}

func TestMiddleware_RejectsBadToken(t *testing.T) {
	_, err := runMiddleware(t, Middleware(testSecret), "Bearer garbage")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(WithIdentity(req.Context(), uuid.New(), RoleAdmin)))

	handler := RequireRole(RolePharmacist)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := handler(c); err != nil {
		t.Errorf("admin should pass any role gate: %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(WithIdentity(req.Context(), uuid.New(), RolePatient)))

	handler := RequireRole(RolePharmacist)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	_, err := runMiddleware(t, RequireRole(RolePatient), "")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
