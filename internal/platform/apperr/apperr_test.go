package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errThingMissing = New(NotFound, "thing_not_found", "thing", "thing not found")

func TestError_IsMatchesByCode(t *testing.T) {
	err := errThingMissing.WithID("abc").WithDetail("k", "v")
	if !errors.Is(err, errThingMissing) {
		t.Fatal("expected errors.Is to match sentinel by code")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.Is(wrapped, errThingMissing) {
		t.Fatal("expected errors.Is to see through fmt wrapping")
	}
	other := New(NotFound, "other_not_found", "other", "other")
	if errors.Is(err, other) {
		t.Fatal("different codes must not match")
	}
}

func TestError_WithDoesNotMutateSentinel(t *testing.T) {
	_ = errThingMissing.WithID("x").WithDetail("a", "b")
	if errThingMissing.ID != "" || len(errThingMissing.Details) != 0 {
		t.Fatalf("sentinel mutated: %+v", errThingMissing)
	}
}

func TestError_Message(t *testing.T) {
	err := errThingMissing.WithID("42").WithDetail("current", "waiting")
	want := "thing not found (thing 42) current=waiting"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestStorage(t *testing.T) {
	if Storage("op", nil) != nil {
		t.Fatal("nil in, nil out")
	}
	err := Storage("load visit", errors.New("connection refused"))
	if !IsKind(err, StorageUnavailable) {
		t.Fatalf("expected storage kind, got %q", KindOf(err))
	}
	classified := errThingMissing.WithID("1")
	if got := Storage("load", classified); got != error(classified) {
		t.Fatal("classified errors must pass through")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errThingMissing, http.StatusNotFound},
		{New(Conflict, "dup", "x", "dup"), http.StatusConflict},
		{New(IllegalTransition, "illegal_transition", "visit", "bad"), http.StatusConflict},
		{New(IllegalTransition, "transition_not_permitted", "visit", "denied"), http.StatusForbidden},
		{Invalid("bad_input", "bad"), http.StatusBadRequest},
		{Storage("op", errors.New("down")), http.StatusServiceUnavailable},
		{New(PartialCommit, "partial_commit", "x", "half"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestToHTTP_Body(t *testing.T) {
	he := ToHTTP(errThingMissing.WithID("7").WithDetail("current", "waiting"))
	if he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", he.Code)
	}
	body, ok := he.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map body, got %T", he.Message)
	}
	if body["code"] != "thing_not_found" || body["id"] != "7" {
		t.Errorf("unexpected body: %v", body)
	}
	details, _ := body["details"].(map[string]string)
	if details["current"] != "waiting" {
		t.Errorf("expected details to carry current state, got %v", body["details"])
	}
}
