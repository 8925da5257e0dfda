package prescriptions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curex40/curex40/internal/platform/apperr"
	"github.com/curex40/curex40/internal/platform/auth"
)

func request(t *testing.T, h *Handler, userID uuid.UUID, role string,
	call func(c echo.Context) error, prescriptionID uuid.UUID) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(auth.WithIdentity(context.Background(), userID, role))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(prescriptionID.String())
	return call(c)
}

func TestRefill_OtherPatientHidden(t *testing.T) {
	medID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID]int{medID: 1000})
	h := NewHandler(svc)
	owner := uuid.New()
	pharmacist := uuid.New()

	p := submit(t, svc, owner, medID, 10, 1)
	if _, err := svc.Verify(context.Background(), p.ID, pharmacist, nil); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.Fill(context.Background(), p.ID,
		[]FillItemInput{{ItemID: p.Items[0].ID, Quantity: 10}}, pharmacist); err != nil {
		t.Fatalf("fill: %v", err)
	}

	err := request(t, h, uuid.New(), auth.RolePatient, h.refill, p.ID)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for another patient's prescription, got %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RefillsUsed != 0 {
		t.Errorf("refill allowance must be untouched, got refills_used=%d", got.RefillsUsed)
	}

	if err := request(t, h, owner, auth.RolePatient, h.refill, p.ID); err != nil {
		t.Fatalf("owner refill: %v", err)
	}
}

func TestCancel_OtherPatientHidden(t *testing.T) {
	medID := uuid.New()
	svc, _ := newTestService(map[uuid.UUID]int{medID: 100})
	h := NewHandler(svc)
	owner := uuid.New()

	p := submit(t, svc, owner, medID, 10, 0)

	err := request(t, h, uuid.New(), auth.RolePatient, h.cancel, p.ID)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for another patient's prescription, got %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("prescription must stay pending, got %s", got.Status)
	}

	// Pharmacists are not subject to the ownership mask.
	if err := request(t, h, uuid.New(), auth.RolePharmacist, h.cancel, p.ID); err != nil {
		t.Fatalf("pharmacist cancel: %v", err)
	}
}
