// AngelaMos | 2026
// handler_test.go

package admin

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsask/api/internal/account"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/middleware"
	"github.com/kidsask/api/internal/subscription"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	adminID   = "0b8e2f5c-6a1d-4c3e-9f7a-2d4b6c8e0a11"
	userID    = "5f1a9c3e-2b7d-4e8f-a6c4-3d9b1e7f5a22"
	missingID = "9c4e7a1f-3d5b-4f2a-8e6c-1b7d3f9a5c33"
)

type fakeAccounts struct {
	listParams account.ListParams
	users      []account.AccountResponse
	total      int
	suspended  map[string]bool
	stats      *account.RegistrationStats
}

func (f *fakeAccounts) ListUsers(
	_ context.Context,
	params account.ListParams,
) ([]account.AccountResponse, int, error) {
	f.listParams = params
	return f.users, f.total, nil
}

func (f *fakeAccounts) RecentUsersByPlan(
	_ context.Context,
	_ int,
) (*account.RecentUsersResponse, error) {
	return &account.RecentUsersResponse{
		ByPlan: map[string][]account.AccountResponse{"basic": f.users},
		Total:  len(f.users),
	}, nil
}

func (f *fakeAccounts) SetSuspension(
	_ context.Context,
	id string,
	suspended bool,
) (*account.AccountResponse, error) {
	if id == missingID {
		return nil, core.ErrNotFound
	}
	if f.suspended == nil {
		f.suspended = map[string]bool{}
	}
	f.suspended[id] = suspended
	return &account.AccountResponse{ID: id, AccountLocked: suspended}, nil
}

func (f *fakeAccounts) RegistrationStats(_ context.Context) (*account.RegistrationStats, error) {
	if f.stats == nil {
		return nil, errors.New("db down")
	}
	return f.stats, nil
}

type fakePlans struct {
	overrides map[string]string
}

func (f *fakePlans) OverridePlan(
	_ context.Context,
	accountID, plan string,
) (*subscription.SubscriptionResponse, error) {
	if plan == "platinum" {
		return nil, subscription.ErrInvalidPlan
	}
	if accountID == missingID {
		return nil, core.ErrNotFound
	}
	if f.overrides == nil {
		f.overrides = map[string]string{}
	}
	f.overrides[accountID] = plan
	return &subscription.SubscriptionResponse{Plan: plan}, nil
}

type fakeUsage struct {
	since time.Time
}

func (f *fakeUsage) TopicUsage(_ context.Context, since time.Time) (map[string]int, error) {
	f.since = since
	return map[string]int{"Animals": 4, "Space": 2}, nil
}

func asAdmin(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: id,
				Role:   middleware.RoleAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
			UserID: "acc-9",
			Role:   "user",
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *core.ErrorBody `json:"error"`
	Meta    *core.Meta      `json:"meta"`
}

type fixture struct {
	accounts *fakeAccounts
	plans    *fakePlans
	usage    *fakeUsage
	router   http.Handler
}

func newFixture(authenticator func(http.Handler) http.Handler) *fixture {
	f := &fixture{
		accounts: &fakeAccounts{
			users: []account.AccountResponse{{ID: "acc-1", Email: "ana@example.com"}},
			total: 41,
			stats: &account.RegistrationStats{Total: 41, Daily: 2},
		},
		plans: &fakePlans{},
		usage: &fakeUsage{},
	}

	h := NewHandler(HandlerConfig{
		Accounts: f.accounts,
		Plans:    f.plans,
		Usage:    f.usage,
		DBStats:  func() sql.DBStats { return sql.DBStats{OpenConnections: 3, InUse: 1} },
		RedisStats: func() *redis.PoolStats {
			return &redis.PoolStats{Hits: 10, TotalConns: 2}
		},
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("connection refused") },
		Now:       func() time.Time { return fixedNow },
	})

	r := chi.NewRouter()
	h.RegisterRoutes(r, authenticator, middleware.RequireAdmin)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestAdminRequiresAdminRole(t *testing.T) {
	f := newFixture(asUser)

	rec, env := f.do(t, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
}

func TestListUsersPagination(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	rec, env := f.do(t, http.MethodGet, "/admin/users?timeframe=week&plan=premium&page=2&page_size=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, account.TimeframeWeek, f.accounts.listParams.Timeframe)
	assert.Equal(t, "premium", f.accounts.listParams.Plan)
	assert.Equal(t, 2, f.accounts.listParams.Page)
	assert.Equal(t, 100, f.accounts.listParams.PageSize)

	require.NotNil(t, env.Meta)
	assert.Equal(t, 41, env.Meta.Total)
	assert.Contains(t, string(env.Data), "ana@example.com")
}

func TestSetStatus(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	rec, env := f.do(t, http.MethodPut, "/admin/users/"+userID+"/status", map[string]any{"accountLocked": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.True(t, f.accounts.suspended[userID])

	rec, env = f.do(t, http.MethodPut, "/admin/users/"+adminID+"/status", map[string]any{"accountLocked": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = f.do(t, http.MethodPut, "/admin/users/"+adminID+"/status", map[string]any{"accountLocked": false})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/admin/users/"+userID+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/admin/users/"+missingID+"/status", map[string]any{"accountLocked": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetPlan(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	rec, env := f.do(t, http.MethodPut, "/admin/users/"+userID+"/plan", map[string]any{"plan": "premium"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "premium")
	assert.Equal(t, "premium", f.plans.overrides[userID])

	rec, env = f.do(t, http.MethodPut, "/admin/users/"+userID+"/plan", map[string]any{"plan": "platinum"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PLAN", env.Error.Code)

	rec, env = f.do(t, http.MethodPut, "/admin/users/"+missingID+"/plan", map[string]any{"plan": "premium"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestMalformedUserIDIsNotFound(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{"status", "/admin/users/not-a-uuid/status", map[string]any{"accountLocked": true}},
		{"plan", "/admin/users/acc-1/plan", map[string]any{"plan": "premium"}},
		{"sql fragment", "/admin/users/1%27%20OR%201=1/status", map[string]any{"accountLocked": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "NOT_FOUND", env.Error.Code)
		})
	}

	assert.Empty(t, f.accounts.suspended)
	assert.Empty(t, f.plans.overrides)
}

func TestRegistrationStats(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	rec, env := f.do(t, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats account.RegistrationStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 41, stats.Total)

	f.accounts.stats = nil
	rec, env = f.do(t, http.MethodGet, "/admin/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
}

func TestTopicUsage(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	rec, env := f.do(t, http.MethodGet, "/admin/stats/topics?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixedNow.AddDate(0, 0, -7), f.usage.since)

	var usage TopicUsageResponse
	require.NoError(t, json.Unmarshal(env.Data, &usage))
	assert.Equal(t, 7, usage.Days)
	assert.Equal(t, 4, usage.Topics["Animals"])

	_, env = f.do(t, http.MethodGet, "/admin/stats/topics?days=9000", nil)
	require.NoError(t, json.Unmarshal(env.Data, &usage))
	assert.Equal(t, 30, usage.Days)
}

func TestSystemStats(t *testing.T) {
	f := newFixture(asAdmin(adminID))

	rec, env := f.do(t, http.MethodGet, "/admin/stats/system", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats SystemStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.True(t, stats.Database.Healthy)
	assert.False(t, stats.Redis.Healthy)
	require.NotNil(t, stats.Database.Stats)
	assert.Equal(t, 3, stats.Database.Stats.OpenConnections)
	require.NotNil(t, stats.Redis.Stats)
	assert.Equal(t, uint32(10), stats.Redis.Stats.Hits)
	assert.NotEmpty(t, stats.Runtime.GoVersion)

	rec, _ = f.do(t, http.MethodGet, "/admin/stats/runtime", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
