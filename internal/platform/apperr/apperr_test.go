package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Authorization("nope"), http.StatusForbidden},
		{Conflict("insufficient stock"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Conflict("insufficient stock for medication")
	wrapped := fmt.Errorf("confirm order: %w", inner)
	if !IsKind(wrapped, KindConflict) {
		t.Error("expected conflict kind through fmt.Errorf wrap")
	}
	if HTTPStatus(wrapped) != http.StatusConflict {
		t.Error("expected 409 through wrap")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("row scan failed")
	e := Wrap(KindNotFound, cause, "medication not found")
	if !errors.Is(e, cause) {
		t.Error("expected wrapped cause to be found by errors.Is")
	}
	if KindOf(e) != KindNotFound {
		t.Error("expected NotFound kind")
	}
}
