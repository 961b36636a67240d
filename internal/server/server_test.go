package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/capacity"
	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/entity"
	"github.com/dsifab/fabsched/internal/export"
	"github.com/dsifab/fabsched/internal/feasibility"
	"github.com/dsifab/fabsched/internal/scheduler"
)

// stubStore is an in-memory JobStore for handler tests.
type stubStore struct {
	jobs    map[string]*entity.Job
	saved   []*entity.Job
	pingErr error
}

func newStubStore() *stubStore {
	return &stubStore{jobs: make(map[string]*entity.Job)}
}

func (s *stubStore) LoadCommittedJobs(ctx context.Context) ([]*entity.Job, error) {
	out := make([]*entity.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if !j.Completed {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *stubStore) SaveScheduledJobs(ctx context.Context, jobs []*entity.Job) error {
	s.saved = jobs
	for _, j := range jobs {
		s.jobs[j.JobNumber] = j
	}
	return nil
}

func (s *stubStore) GetJob(ctx context.Context, jobNumber string) (*entity.Job, error) {
	j, ok := s.jobs[jobNumber]
	if !ok {
		return nil, common.NewAppError("STORE", "job not found", common.ErrNotFound)
	}
	return j, nil
}

func (s *stubStore) MarkCompleted(ctx context.Context, jobNumber string) error {
	j, ok := s.jobs[jobNumber]
	if !ok {
		return common.NewAppError("STORE", "job not found", common.ErrNotFound)
	}
	j.Completed = true
	return nil
}

func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubStore) Close() error                   { return nil }

func newTestServer(store *stubStore) *Server {
	model := capacity.DefaultModel()
	return New(
		common.ServerConfig{HTTPAddr: ":0", ShutdownTimeout: time.Second},
		store,
		scheduler.New(model),
		feasibility.New(model, nil),
		export.NewService(nil),
		zap.NewNop(),
	)
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	store := newStubStore()
	s := newTestServer(store)

	if w := doRequest(s, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", w.Code)
	}

	store.pingErr = errors.New("connection refused")
	if w := doRequest(s, http.MethodGet, "/healthz", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz with dead store = %d, want 503", w.Code)
	}
}

func TestScheduleEndpoint(t *testing.T) {
	store := newStubStore()
	s := newTestServer(store)

	req := map[string]any{
		"today": "2026-08-31",
		"jobs": []map[string]any{{
			"job_number":     "J-100",
			"job_name":       "rail sections",
			"product_type":   "FAB",
			"welding_points": 40,
			"due_date":       "2026-09-28T00:00:00Z",
		}},
	}
	w := doRequest(s, http.MethodPost, "/v1/schedule", req)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule = %d: %s", w.Code, w.Body.String())
	}

	var result entity.ScheduleResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Insights.JobsScheduled != 1 {
		t.Fatalf("insights = %+v, want one scheduled job", result.Insights)
	}
	if len(store.saved) != 1 || store.saved[0].JobNumber != "J-100" {
		t.Fatalf("store should hold the scheduled job, got %+v", store.saved)
	}
	if store.saved[0].DepartmentSchedule[constants.DeptWelding] == nil {
		t.Fatal("persisted job is missing its Welding window")
	}
}

func TestScheduleEndpointBadPayload(t *testing.T) {
	s := newTestServer(newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/v1/schedule", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", w.Code)
	}

	if w := doRequest(s, http.MethodPost, "/v1/schedule", map[string]any{"today": "soon"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date = %d, want 400", w.Code)
	}
}

func TestFeasibilityEndpoint(t *testing.T) {
	s := newTestServer(newStubStore())

	quote := map[string]any{
		"quote_id":          "Q-1",
		"product_type":      "FAB",
		"dollar_value":      4500,
		"engineering_ready": "2026-08-31T00:00:00Z",
		"target_date":       "2026-09-30T00:00:00Z",
	}
	w := doRequest(s, http.MethodPost, "/v1/feasibility", map[string]any{"quote": quote})
	if w.Code != http.StatusOK {
		t.Fatalf("feasibility = %d: %s", w.Code, w.Body.String())
	}
	var report entity.FeasibilityReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.Recommendation != constants.RecommendAccept {
		t.Fatalf("recommendation = %s, want ACCEPT on an empty book", report.Recommendation)
	}

	// Missing quote and failed validation both map to 400.
	if w := doRequest(s, http.MethodPost, "/v1/feasibility", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing quote = %d, want 400", w.Code)
	}
	delete(quote, "quote_id")
	if w := doRequest(s, http.MethodPost, "/v1/feasibility", map[string]any{"quote": quote}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid quote = %d, want 400", w.Code)
	}
}

func TestGetJobEndpoint(t *testing.T) {
	store := newStubStore()
	store.jobs["J-7"] = &entity.Job{JobNumber: "J-7", ProductType: constants.ProductFAB}
	s := newTestServer(store)

	if w := doRequest(s, http.MethodGet, "/v1/jobs/J-7", nil); w.Code != http.StatusOK {
		t.Fatalf("get job = %d", w.Code)
	}
	if w := doRequest(s, http.MethodGet, "/v1/jobs/NOPE", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing job = %d, want 404", w.Code)
	}
}

func TestCompleteJobEndpoint(t *testing.T) {
	store := newStubStore()
	store.jobs["J-7"] = &entity.Job{JobNumber: "J-7"}
	s := newTestServer(store)

	if w := doRequest(s, http.MethodPost, "/v1/jobs/J-7/complete", nil); w.Code != http.StatusOK {
		t.Fatalf("complete = %d", w.Code)
	}
	if !store.jobs["J-7"].Completed {
		t.Fatal("job should be marked completed")
	}
}

func TestBufferEndpoint(t *testing.T) {
	s := newTestServer(newStubStore())

	w := doRequest(s, http.MethodGet, "/v1/buffer?as_of=2026-08-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("buffer = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		AsOf   string             `json:"as_of"`
		Buffer map[string]float64 `json:"buffer_days"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AsOf != "2026-08-31" {
		t.Fatalf("as_of = %q", resp.AsOf)
	}
}

func TestExportScheduleEndpoint(t *testing.T) {
	store := newStubStore()
	store.jobs["J-9"] = &entity.Job{JobNumber: "J-9", ProductType: constants.ProductFAB, WeldingPoints: 10, DueDate: time.Now()}
	s := newTestServer(store)

	w := doRequest(s, http.MethodGet, "/v1/export/schedule", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty workbook body")
	}
}
