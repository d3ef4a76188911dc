// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy = pingFunc(func(context.Context) error { return nil })
	broken  = pingFunc(func(context.Context) error { return errors.New("down") })
)

func serve(t *testing.T, h *Handler, path string) (int, ReadinessResponse) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		deps   []Dependency
		code   int
		status string
	}{
		{
			name: "all healthy",
			deps: []Dependency{
				{Name: "database", Checker: healthy, Critical: true},
				{Name: "ai", Checker: healthy},
			},
			code:   http.StatusOK,
			status: "ok",
		},
		{
			name: "optional failing",
			deps: []Dependency{
				{Name: "database", Checker: healthy, Critical: true},
				{Name: "ai", Checker: broken},
			},
			code:   http.StatusOK,
			status: "degraded",
		},
		{
			name: "critical failing",
			deps: []Dependency{
				{Name: "database", Checker: broken, Critical: true},
				{Name: "ai", Checker: healthy},
			},
			code:   http.StatusServiceUnavailable,
			status: "unavailable",
		},
		{
			name:   "critical not configured",
			deps:   []Dependency{{Name: "redis", Critical: true}},
			code:   http.StatusServiceUnavailable,
			status: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serve(t, NewHandler(tt.deps...), "/readyz")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, resp.Status)
			assert.Len(t, resp.Checks, len(tt.deps))
		})
	}
}

func TestShutdown(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: healthy, Critical: true})

	code, _ := serve(t, h, "/livez")
	assert.Equal(t, http.StatusOK, code)

	h.SetShutdown(true)
	code, resp := serve(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", resp.Status)
}
