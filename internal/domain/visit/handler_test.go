package visit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mariyask04/Clinic-Management/internal/platform/auth"
)

func newTestHandler(patients ...uuid.UUID) (*Handler, *mockRepo, *echo.Echo) {
	svc, repo, _ := newTestService(patients...)
	return NewHandler(svc), repo, echo.New()
}

func withRoles(req *http.Request, roles ...string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), "user-1", roles))
}

func TestHandler_CheckIn(t *testing.T) {
	p := uuid.New()
	h, _, e := newTestHandler(p)

	call := func() *httptest.ResponseRecorder {
		req := withRoles(httptest.NewRequest(http.MethodPost, "/", nil), "receptionist")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("patientId")
		c.SetParamValues(p.String())
		if err := h.CheckIn(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec
	}

	rec := call()
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var first View
	json.Unmarshal(rec.Body.Bytes(), &first)
	if first.TokenNumber != "P100" || first.Status != StatusWaiting || first.VisitDate != "2026-03-02" {
		t.Errorf("unexpected body: %+v", first)
	}

	rec = call()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat check-in, got %d", rec.Code)
	}
	var second View
	json.Unmarshal(rec.Body.Bytes(), &second)
	if second.ID != first.ID {
		t.Error("repeat check-in must return the same visit")
	}
}

func TestHandler_CheckIn_Errors(t *testing.T) {
	h, _, e := newTestHandler()

	tests := []struct {
		param string
		code  int
	}{
		{"not-a-uuid", http.StatusBadRequest},
		{uuid.New().String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		c.SetParamNames("patientId")
		c.SetParamValues(tt.param)
		err := h.CheckIn(c)
		httpErr, ok := err.(*echo.HTTPError)
		if !ok || httpErr.Code != tt.code {
			t.Errorf("param %s: expected %d, got %v", tt.param, tt.code, err)
		}
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	h, repo, e := newTestHandler()
	v := seedVisit(repo, StatusWaiting)

	call := func(body string, roles ...string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = withRoles(req, roles...)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(v.ID.String())
		return rec, h.UpdateStatus(c)
	}

	// Skipping straight to completed is illegal.
	_, err := call(`{"status":"completed"}`, "doctor")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	body := httpErr.Message.(map[string]interface{})
	details := body["details"].(map[string]string)
	if details["current"] != "waiting" || details["requested"] != "completed" {
		t.Errorf("unexpected details: %v", details)
	}

	rec, err := call(`{"status":"in_consultation"}`, "receptionist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	_, err = call(`{"status":"completed"}`, "receptionist")
	httpErr, ok = err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for receptionist completing, got %v", err)
	}
}

func TestHandler_UpdateStatus_RoleOrderIrrelevant(t *testing.T) {
	for _, roles := range [][]string{
		{"receptionist", "doctor"},
		{"doctor", "receptionist"},
	} {
		h, repo, e := newTestHandler()
		v := seedVisit(repo, StatusInConsultation)

		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"completed"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = withRoles(req, roles...)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(v.ID.String())

		if err := h.UpdateStatus(c); err != nil {
			t.Fatalf("roles %v: expected completion, got %v", roles, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("roles %v: expected 200, got %d", roles, rec.Code)
		}
	}
}

func TestHandler_GetVisit_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetVisit(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
