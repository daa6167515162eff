package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mariyask04/Clinic-Management/internal/config"
	"github.com/mariyask04/Clinic-Management/internal/domain/patient"
	"github.com/mariyask04/Clinic-Management/internal/platform/auth"
	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:           "0",
		Env:            "development",
		LogLevel:       "debug",
		StoreDriver:    config.DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "clinic.db"),
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		ClinicTimezone: "UTC",
		TokenCounter:   "token",
		TokenBaseline:  99,
		TokenPrefix:    "P",
	}
}

type testServer struct {
	e   *echo.Echo
	st  *stores
	cfg *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig(t)
	st, err := openStores(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	t.Cleanup(st.close)

	e, err := newServer(cfg, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testServer{e: e, st: st, cfg: cfg}
}

func (s *testServer) seedPatient(t *testing.T, name string) string {
	t.Helper()
	sqlDB, err := sqlitedb.Open(s.cfg.SQLitePath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()
	p := &patient.Patient{FullName: name}
	if err := patient.Seed(context.Background(), sqlDB, p); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return p.ID.String()
}

func (s *testServer) do(t *testing.T, method, path, role string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		req.Header.Set(auth.DevRoleHeader, role)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestHealth_IsPublic(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("expected ok, got %d %v", rec.Code, body)
	}
	rec, body = s.do(t, http.MethodGet, "/health/db", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected db health 200, got %d %v", rec.Code, body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestVisitWorkflow_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	pid := s.seedPatient(t, "Ravi Kumar")

	rec, v := s.do(t, http.MethodPost, "/api/v1/patients/"+pid+"/visits", auth.RoleReceptionist, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("check in: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	if v["token_number"] != "P100" || v["status"] != "waiting" {
		t.Fatalf("unexpected visit: %v", v)
	}
	visitID := v["id"].(string)

	rec, again := s.do(t, http.MethodPost, "/api/v1/patients/"+pid+"/visits", auth.RoleReceptionist, nil)
	if rec.Code != http.StatusOK || again["id"] != visitID {
		t.Fatalf("second check in should return the open visit, got %d %v", rec.Code, again)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/visits/"+visitID+"/prescription", auth.RoleDoctor, map[string]interface{}{
		"patient_id": pid, "diagnosis": "Fever",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("prescription before consultation: expected 409, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/visits/"+visitID+"/status", auth.RoleDoctor, map[string]string{"status": "in_consultation"})
	if rec.Code != http.StatusOK {
		t.Fatalf("start consultation: expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/visits/"+visitID+"/prescription", auth.RoleReceptionist, map[string]interface{}{
		"patient_id": pid, "diagnosis": "Fever",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("receptionist prescribing: expected 403, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/visits/"+visitID+"/prescription", auth.RoleDoctor, map[string]interface{}{
		"patient_id": pid,
		"diagnosis":  "Fever",
		"medicines":  []map[string]string{{"name": "Paracetamol", "dosage": "500mg"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("prescription: expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	rec, got := s.do(t, http.MethodGet, "/api/v1/visits/"+visitID, auth.RoleReceptionist, nil)
	if rec.Code != http.StatusOK || got["status"] != "completed" {
		t.Fatalf("expected visit completed, got %d %v", rec.Code, got)
	}

	rec, pending := s.do(t, http.MethodGet, "/api/v1/billing/pending", auth.RoleReceptionist, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending billing: expected 200, got %d", rec.Code)
	}
	if items, _ := pending["data"].([]interface{}); len(items) != 1 {
		t.Fatalf("expected one visit awaiting a bill, got %v", pending["data"])
	}

	rec, bill := s.do(t, http.MethodPost, "/api/v1/visits/"+visitID+"/bill", auth.RoleReceptionist, map[string]interface{}{
		"patient_id":       pid,
		"consultation_fee": "500",
		"medicine_fee":     "150",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("bill: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	if bill["total_amount"] != "650" || bill["payment_status"] != "pending" {
		t.Fatalf("unexpected bill: %v", bill)
	}
	billID := bill["id"].(string)

	rec, paid := s.do(t, http.MethodPost, "/api/v1/bills/"+billID+"/pay", auth.RoleReceptionist, nil)
	if rec.Code != http.StatusOK || paid["payment_status"] != "paid" {
		t.Fatalf("pay: expected paid, got %d %v", rec.Code, paid)
	}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/bills/"+billID+"/pay", auth.RoleReceptionist, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second pay: expected 409, got %d", rec.Code)
	}

	rec, hist := s.do(t, http.MethodGet, "/api/v1/history?search=ravi", auth.RoleDoctor, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	entries, _ := hist["data"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected one history entry, got %v", hist["data"])
	}
	entry := entries[0].(map[string]interface{})
	if entry["prescription"] == nil || entry["bill"] == nil {
		t.Errorf("expected joined prescription and bill, got %v", entry)
	}

	next, err := peekSequence(context.Background(), s.cfg, s.st, "")
	if err != nil {
		t.Fatal(err)
	}
	if next != 100 {
		t.Errorf("expected last issued token 100, got %d", next)
	}
}

func TestVisitWorkflow_UnknownRoleForbidden(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/queue/today", "pharmacist", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestVisitWorkflow_MultiRoleCallerCompletes(t *testing.T) {
	for _, roles := range []string{"receptionist,doctor", "doctor,receptionist"} {
		s := newTestServer(t)
		pid := s.seedPatient(t, "Asha Rao")

		rec, v := s.do(t, http.MethodPost, "/api/v1/patients/"+pid+"/visits", auth.RoleReceptionist, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("check in: expected 201, got %d", rec.Code)
		}
		path := "/api/v1/visits/" + v["id"].(string) + "/status"

		if rec, _ = s.do(t, http.MethodPatch, path, roles, map[string]string{"status": "in_consultation"}); rec.Code != http.StatusOK {
			t.Fatalf("roles %s: start consultation expected 200, got %d", roles, rec.Code)
		}
		rec, got := s.do(t, http.MethodPatch, path, roles, map[string]string{"status": "completed"})
		if rec.Code != http.StatusOK || got["status"] != "completed" {
			t.Fatalf("roles %s: expected completion, got %d %s", roles, rec.Code, rec.Body.String())
		}
	}
}
