package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"pdswatch/internal/history"
	"pdswatch/internal/probe"
)

type stubTrigger struct {
	record probe.RunRecord
	err    error
	calls  int
}

func (s *stubTrigger) RunOnce(ctx context.Context) (probe.RunRecord, error) {
	s.calls++
	return s.record, s.err
}

func testAPI(t *testing.T, trigger RunTrigger, auth AuthConfig) (*API, history.Store) {
	t.Helper()
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"))
	api := NewAPI(store, trigger, NewAuth(auth), nil, LimitConfig{RequestsPerSecond: 100, Burst: 100})
	return api, store
}

func seedRecord(t *testing.T, store history.Store, timestamp string, primaryStatus probe.Status) {
	t.Helper()
	rt := 0.1
	results := []probe.Result{
		{Endpoint: "server_describe", Status: primaryStatus, ResponseTime: &rt},
		{Endpoint: "get_profile", Status: probe.StatusSuccess, ResponseTime: &rt},
	}
	record := probe.RunRecord{
		RunID:     "run-" + timestamp,
		Timestamp: timestamp,
		Target:    "https://pds.example.com",
		Results:   results,
		Summary:   probe.Summarize(results),
	}
	if err := store.Append(context.Background(), record); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	api, _ := testAPI(t, &stubTrigger{}, AuthConfig{})
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	api, store := testAPI(t, &stubTrigger{}, AuthConfig{})
	seedRecord(t, store, "2025-03-01T08:00:00Z", probe.StatusSuccess)
	seedRecord(t, store, "2025-03-01T12:00:00Z", probe.StatusFailed)

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("overview status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		TotalRuns int      `json:"total_runs"`
		Uptime    *float64 `json:"uptime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TotalRuns != 2 {
		t.Fatalf("total_runs = %d, want 2", body.TotalRuns)
	}
	if body.Uptime == nil || *body.Uptime != 50 {
		t.Fatalf("uptime = %v, want 50", body.Uptime)
	}
}

func TestOverviewEmptyHistoryIsNull(t *testing.T) {
	api, _ := testAPI(t, &stubTrigger{}, AuthConfig{})
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("overview status = %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if string(body["uptime"]) != "null" {
		t.Fatalf("empty history uptime = %s, want null", body["uptime"])
	}
}

func TestLatestRun(t *testing.T) {
	api, store := testAPI(t, &stubTrigger{}, AuthConfig{})

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("latest with no runs = %d, want 404", rec.Code)
	}

	seedRecord(t, store, "2025-03-01T08:00:00Z", probe.StatusSuccess)
	seedRecord(t, store, "2025-03-01T12:00:00Z", probe.StatusSuccess)
	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}
	var record probe.RunRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if record.RunID != "run-2025-03-01T12:00:00Z" {
		t.Fatalf("latest run = %q", record.RunID)
	}
}

func TestAdminRunRequiresAuth(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	trigger := &stubTrigger{record: probe.NewRunRecord("https://pds.example.com", "j4ck.xyz", false, nil)}
	api, _ := testAPI(t, trigger, AuthConfig{AdminUser: "admin", AdminPasswordHash: hash})
	handler := api.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/run", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated trigger = %d, want 401", rec.Code)
	}
	if trigger.calls != 0 {
		t.Fatal("trigger must not run without auth")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/run", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/run", nil)
	req.SetBasicAuth("admin", "s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("authorized trigger = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if trigger.calls != 1 {
		t.Fatalf("trigger calls = %d, want 1", trigger.calls)
	}
}

func TestAdminRunDisabledWithoutHash(t *testing.T) {
	api, _ := testAPI(t, &stubTrigger{}, AuthConfig{AdminUser: "admin"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/run", nil)
	req.SetBasicAuth("admin", "anything")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin without configured hash = %d, want 401", rec.Code)
	}
}
