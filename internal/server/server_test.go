package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/scheduler"
)

type stubCache struct {
	counts map[string]int64
	err    error
}

func (s stubCache) Counts() (map[string]int64, error) { return s.counts, s.err }

type stubDB struct{ err error }

func (s stubDB) HealthCheck(ctx context.Context) error { return s.err }

type stubJobs []scheduler.JobStatus

func (s stubJobs) Status() []scheduler.JobStatus { return s }

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func newTestServer(cfg Config) http.Handler {
	cfg.Log = zerolog.Nop()
	cfg.DevMode = true
	return New(cfg).Handler()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(newTestServer(Config{}), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "advisor", body.Service)
	assert.Equal(t, Version, body.Version)
	assert.GreaterOrEqual(t, body.UptimeSeconds, int64(0))
}

func TestModulesAreMountedUnderAPI(t *testing.T) {
	h := newTestServer(Config{Modules: []RouteRegistrar{pingModule{}}})

	assert.Equal(t, http.StatusTeapot, get(h, "/api/ping").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/ping").Code)
}

func TestSystemStatus(t *testing.T) {
	tests := []struct {
		name       string
		cache      CacheStats
		db         HealthChecker
		wantStatus string
		wantDBOK   bool
		wantCount  int64
	}{
		{"healthy", stubCache{counts: map[string]int64{"price_series": 3}}, stubDB{}, "healthy", true, 3},
		{"database down", stubCache{counts: map[string]int64{"price_series": 3}}, stubDB{err: errors.New("locked")}, "degraded", false, 3},
		{"cache count fails", stubCache{err: errors.New("boom")}, nil, "healthy", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(Config{Cache: tt.cache, DB: tt.db, DataDir: t.TempDir()}), "/api/system/status")

			require.Equal(t, http.StatusOK, rec.Code)
			var body SystemStatusResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantDBOK, body.DatabaseOK)
			assert.Equal(t, tt.wantCount, body.CacheEntries["price_series"])
			assert.GreaterOrEqual(t, body.MemoryPercent, 0.0)
			assert.NotEmpty(t, body.LastChecked)
		})
	}
}

func TestJobsStatus(t *testing.T) {
	jobs := stubJobs{{Name: "cache_cleanup", Schedule: "0 */30 * * * *", Runs: 2}}
	rec := get(newTestServer(Config{Jobs: jobs}), "/api/system/jobs")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Jobs  []scheduler.JobStatus `json:"jobs"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "cache_cleanup", body.Jobs[0].Name)

	rec = get(newTestServer(Config{}), "/api/system/jobs")
	assert.JSONEq(t, `{"jobs":[],"count":0}`, rec.Body.String())
}
