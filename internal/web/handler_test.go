package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/internal/models"
	"worktimer/internal/tracker"
)

type fakeController struct {
	mu       sync.Mutex
	snap     *tracker.Snapshot
	bound    []models.SlotKey
	canceled []models.SlotKey
	resets   int
	resumes  int
	err      error
}

func (f *fakeController) Snapshot() *tracker.Snapshot { return f.snap }

func (f *fakeController) RequestBind(slot models.SlotKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bound = append(f.bound, slot)
	return f.err
}

func (f *fakeController) CancelBind(slot models.SlotKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, slot)
	return f.err
}

func (f *fakeController) ResetTimer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.err
}

func (f *fakeController) ResumePreviousTime() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return f.err
}

type fakeReporter struct {
	report *models.Report
	err    error
}

func (f *fakeReporter) GenerateReport(string) (*models.Report, error) {
	return f.report, f.err
}

func newTestMux(ctrl Controller, rep HistoryReporter) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(ctrl, rep, zerolog.Nop()).SetupRoutes(mux)
	return mux
}

func do(mux http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func sampleSnapshot() *tracker.Snapshot {
	return &tracker.Snapshot{
		State:   models.Active,
		Elapsed: "00:01:05",
		Seconds: 65,
		Timeout: 10,
		Running: true,
		Slots: []tracker.SlotStatus{
			{Key: 1, Name: "Program 1", PID: 4242, DisplayName: "<editor>"},
			{Key: 2, Name: "Program 2", DisplayName: "None", Listening: true},
			{Key: 3, Name: "Program 3", DisplayName: "None"},
		},
	}
}

func TestStatusJSON(t *testing.T) {
	mux := newTestMux(&fakeController{snap: sampleSnapshot()}, nil)

	rec := do(mux, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "active", body["state"])
	assert.Equal(t, "00:01:05", body["elapsed"])
	assert.Len(t, body["slots"], 3)
}

func TestStatusHTMLEscapesTitles(t *testing.T) {
	mux := newTestMux(&fakeController{snap: sampleSnapshot()}, nil)

	rec := do(mux, http.MethodGet, "/api/status", map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "&lt;editor&gt;")
	assert.Contains(t, rec.Body.String(), "waiting for next window")
	assert.Contains(t, rec.Body.String(), `class="clock active"`)
}

func TestStatusMethodNotAllowed(t *testing.T) {
	mux := newTestMux(&fakeController{snap: sampleSnapshot()}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodPost, "/api/status", nil).Code)
}

func TestCommands(t *testing.T) {
	ctrl := &fakeController{snap: sampleSnapshot()}
	mux := newTestMux(ctrl, nil)

	assert.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/api/bind?slot=2", nil).Code)
	assert.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/api/cancel?slot=Program%203", nil).Code)
	assert.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/api/reset", nil).Code)
	assert.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/api/resume", nil).Code)

	assert.Equal(t, []models.SlotKey{2}, ctrl.bound)
	assert.Equal(t, []models.SlotKey{3}, ctrl.canceled)
	assert.Equal(t, 1, ctrl.resets)
	assert.Equal(t, 1, ctrl.resumes)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"bad slot", "/api/bind?slot=4", nil, http.StatusBadRequest},
		{"missing slot", "/api/bind", nil, http.StatusBadRequest},
		{"stopped", "/api/reset", tracker.ErrStopped, http.StatusServiceUnavailable},
		{"other failure", "/api/resume", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&fakeController{snap: sampleSnapshot(), err: tt.err}, nil)
			assert.Equal(t, tt.want, do(mux, http.MethodPost, tt.target, nil).Code)
		})
	}

	mux := newTestMux(&fakeController{snap: sampleSnapshot()}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodGet, "/api/reset", nil).Code)
}

func TestHistory(t *testing.T) {
	rep := &fakeReporter{report: &models.Report{TotalSeconds: 5400, SpanCount: 3}}
	mux := newTestMux(&fakeController{snap: sampleSnapshot()}, rep)

	rec := do(mux, http.MethodGet, "/api/history?period=week", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_seconds":5400`)

	rec = do(mux, http.MethodGet, "/api/history", map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1h in 3 sessions")

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/api/history?period=year", nil).Code)

	failing := newTestMux(&fakeController{snap: sampleSnapshot()}, &fakeReporter{err: errors.New("db gone")})
	assert.Equal(t, http.StatusInternalServerError, do(failing, http.MethodGet, "/api/history", nil).Code)

	disabled := newTestMux(&fakeController{snap: sampleSnapshot()}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(disabled, http.MethodGet, "/api/history", nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	mux := newTestMux(&fakeController{snap: sampleSnapshot()}, nil)

	rec := do(mux, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = do(mux, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "worktimer_session_active"))

	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/nope", nil).Code)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodGet, "/", nil).Code)
}
