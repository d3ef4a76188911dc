// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsask/api/internal/config"
	"github.com/kidsask/api/internal/health"
)

func newTestServer(metricsEnabled bool) (*Server, *health.Handler) {
	hh := health.NewHandler()
	srv := New(Config{
		ServerConfig: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ShutdownTimeout: time.Second,
		},
		MetricsConfig: config.MetricsConfig{Enabled: metricsEnabled},
		HealthHandler: hh,
	})
	hh.RegisterRoutes(srv.Router())
	return srv, hh
}

func TestMountMetrics(t *testing.T) {
	srv, _ := newTestServer(true)
	srv.MountMetrics()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsDisabled(t *testing.T) {
	srv, _ := newTestServer(false)
	srv.MountMetrics()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdownMarksHealthUnavailable(t *testing.T) {
	srv, _ := newTestServer(false)

	require.NoError(t, srv.Shutdown(context.Background(), 0))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting_down")
}
