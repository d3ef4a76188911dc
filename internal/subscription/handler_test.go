// AngelaMos | 2026
// handler_test.go

package subscription

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *core.ErrorBody `json:"error"`
}

// withUser authenticates every request as id. An empty id leaves the
// request without claims.
func withUser(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id != "" {
				r = r.WithContext(middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
					UserID: id,
					Role:   "user",
				}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func basicState(remaining int) State {
	return State{
		Plan:               PlanBasic,
		Status:             StatusActive,
		QuestionsRemaining: remaining,
		StartDate:          fixedNow.AddDate(0, 0, -5),
		EndDate:            fixedNow.AddDate(0, 0, 25),
		PaymentMethod:      "paypal",
	}
}

func trialState(remaining int) State {
	s := basicState(remaining)
	s.IsFreeTrialUser = true
	s.PaymentMethod = ""
	return s
}

func stateOf(s State) *State {
	return &s
}

func TestSubscriptionHandler(t *testing.T) {
	expired := basicState(12)
	expired.EndDate = fixedNow.Add(-time.Hour)

	tests := []struct {
		name       string
		user       string
		state      *State
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
		check      func(t *testing.T, data json.RawMessage, repo *memoryRepo)
	}{
		{
			name:       "plans are public",
			method:     http.MethodGet,
			path:       "/subscription/plans",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage, _ *memoryRepo) {
				var resp PlansResponse
				require.NoError(t, json.Unmarshal(data, &resp))
				assert.Len(t, resp.Plans, 3)
				assert.Equal(t, 10, resp.Trial.Questions)
			},
		},
		{
			name:       "quota requires claims",
			method:     http.MethodPost,
			path:       "/subscription/quota",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "quota spends one question",
			user:       "acc-1",
			state:      stateOf(basicState(3)),
			method:     http.MethodPost,
			path:       "/subscription/quota",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage, repo *memoryRepo) {
				var status QuotaStatus
				require.NoError(t, json.Unmarshal(data, &status))
				assert.True(t, status.Allowed)
				assert.Equal(t, 2, status.QuestionsRemaining)
				assert.Equal(t, 2, repo.states["acc-1"].QuestionsRemaining)
			},
		},
		{
			name:       "paid plan exhausted",
			user:       "acc-1",
			state:      stateOf(basicState(0)),
			method:     http.MethodPost,
			path:       "/subscription/quota",
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "QUOTA_EXHAUSTED",
		},
		{
			name:       "trial exhausted",
			user:       "acc-1",
			state:      stateOf(trialState(0)),
			method:     http.MethodPost,
			path:       "/subscription/quota",
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "TRIAL_EXHAUSTED",
			check: func(t *testing.T, _ json.RawMessage, repo *memoryRepo) {
				assert.Equal(t, 0, repo.states["acc-1"].QuestionsRemaining)
			},
		},
		{
			name:       "lapsed subscription",
			user:       "acc-1",
			state:      &expired,
			method:     http.MethodPost,
			path:       "/subscription/quota",
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "SUBSCRIPTION_INACTIVE",
		},
		{
			name:       "unknown account",
			user:       "acc-404",
			method:     http.MethodPost,
			path:       "/subscription/quota",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "current subscription",
			user:       "acc-1",
			state:      stateOf(trialState(7)),
			method:     http.MethodGet,
			path:       "/subscription/",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage, _ *memoryRepo) {
				var resp SubscriptionResponse
				require.NoError(t, json.Unmarshal(data, &resp))
				assert.True(t, resp.IsFreeTrialUser)
				assert.Equal(t, 7, resp.QuestionsRemaining)
			},
		},
		{
			name:       "upgrade without payment details",
			user:       "acc-1",
			state:      stateOf(trialState(0)),
			method:     http.MethodPost,
			path:       "/subscription/upgrade",
			body:       `{"plan":"premium"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage, repo *memoryRepo) {
				var resp SubscriptionResponse
				require.NoError(t, json.Unmarshal(data, &resp))
				assert.Equal(t, PlanPremium, resp.Plan)
				assert.Equal(t, 500, resp.QuestionsRemaining)
				assert.Equal(t, DefaultPaymentMethod, resp.PaymentMethod)
				assert.False(t, resp.IsFreeTrialUser)
				assert.True(t, fixedNow.AddDate(0, 0, 365).Equal(resp.EndDate))
				assert.Equal(t, 500, repo.states["acc-1"].QuestionsRemaining)
			},
		},
		{
			name:       "upgrade with paypal",
			user:       "acc-1",
			state:      stateOf(basicState(4)),
			method:     http.MethodPost,
			path:       "/subscription/upgrade",
			body:       `{"plan":"standard","paymentMethod":"paypal"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage, _ *memoryRepo) {
				var resp SubscriptionResponse
				require.NoError(t, json.Unmarshal(data, &resp))
				assert.Equal(t, 200, resp.QuestionsRemaining)
				assert.Equal(t, "paypal", resp.PaymentMethod)
			},
		},
		{
			name:       "upgrade to unknown plan",
			user:       "acc-1",
			state:      stateOf(basicState(4)),
			method:     http.MethodPost,
			path:       "/subscription/upgrade",
			body:       `{"plan":"platinum"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PLAN",
		},
		{
			name:       "trial is not purchasable",
			user:       "acc-1",
			state:      stateOf(basicState(4)),
			method:     http.MethodPost,
			path:       "/subscription/upgrade",
			body:       `{"plan":"trial"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_PLAN",
			check: func(t *testing.T, _ json.RawMessage, repo *memoryRepo) {
				assert.Equal(t, 4, repo.states["acc-1"].QuestionsRemaining)
			},
		},
		{
			name:       "bad card number",
			user:       "acc-1",
			state:      stateOf(basicState(4)),
			method:     http.MethodPost,
			path:       "/subscription/upgrade",
			body:       `{"plan":"premium","paymentMethod":"credit","cardNumber":"1234"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "malformed body",
			user:       "acc-1",
			state:      stateOf(basicState(4)),
			method:     http.MethodPost,
			path:       "/subscription/upgrade",
			body:       `{"plan":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			if tt.state != nil {
				repo.states["acc-1"] = *tt.state
			}

			r := chi.NewRouter()
			NewHandler(newTestService(repo)).RegisterRoutes(r, withUser(tt.user))

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			if tt.wantCode != "" {
				assert.False(t, env.Success)
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
			} else {
				assert.True(t, env.Success)
			}

			if tt.check != nil {
				tt.check(t, env.Data, repo)
			}
		})
	}
}
