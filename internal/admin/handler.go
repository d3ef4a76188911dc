// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kidsask/api/internal/account"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/middleware"
	"github.com/kidsask/api/internal/subscription"
)

type AccountService interface {
	ListUsers(ctx context.Context, params account.ListParams) ([]account.AccountResponse, int, error)
	RecentUsersByPlan(ctx context.Context, limit int) (*account.RecentUsersResponse, error)
	SetSuspension(ctx context.Context, id string, suspended bool) (*account.AccountResponse, error)
	RegistrationStats(ctx context.Context) (*account.RegistrationStats, error)
}

type PlanService interface {
	OverridePlan(ctx context.Context, accountID, plan string) (*subscription.SubscriptionResponse, error)
}

type UsageService interface {
	TopicUsage(ctx context.Context, since time.Time) (map[string]int, error)
}

type Handler struct {
	accounts   AccountService
	plans      PlanService
	usage      UsageService
	validator  *validator.Validate
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
	now        func() time.Time
}

type HandlerConfig struct {
	Accounts   AccountService
	Plans      PlanService
	Usage      UsageService
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
	Now        func() time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		accounts:   cfg.Accounts,
		plans:      cfg.Plans,
		usage:      cfg.Usage,
		validator:  core.NewValidator(),
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
		now:        now,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/users", h.ListUsers)
		r.Get("/recent-users", h.RecentUsers)
		r.Put("/users/{userID}/status", h.SetStatus)
		r.Put("/users/{userID}/plan", h.SetPlan)

		r.Get("/stats", h.GetRegistrationStats)
		r.Get("/stats/topics", h.GetTopicUsage)
		r.Get("/stats/system", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	params := account.ListParams{
		Timeframe: q.Get("timeframe"),
		Plan:      q.Get("plan"),
		Page:      page,
		PageSize:  pageSize,
	}
	params.Normalize()

	users, total, err := h.accounts.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, account.AccountListResponse{Users: users}, params.Page, params.PageSize, total)
}

func (h *Handler) RecentUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.accounts.RecentUsersByPlan(r.Context(), limit)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := accountID(w, r)
	if !ok {
		return
	}

	var req account.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if *req.AccountLocked && userID == middleware.GetUserID(r.Context()) {
		core.Forbidden(w, "you cannot suspend your own account")
		return
	}

	resp, err := h.accounts.SetSuspension(r.Context(), userID, *req.AccountLocked)
	if err != nil {
		core.JSONError(w, subscription.AppError(err))
		return
	}

	core.OK(w, resp)
}

func (h *Handler) SetPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := accountID(w, r)
	if !ok {
		return
	}

	var req account.SetPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.plans.OverridePlan(r.Context(), userID, req.Plan)
	if err != nil {
		core.JSONError(w, subscription.AppError(err))
		return
	}

	core.OK(w, resp)
}

// accountID reads the userID path segment. Anything that is not a UUID
// cannot name an account, so it is answered as not found.
func accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		core.NotFound(w, "account")
		return "", false
	}
	return id.String(), true
}

func (h *Handler) GetRegistrationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.accounts.RegistrationStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) GetTopicUsage(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 || days > 365 {
		days = 30
	}

	usage, err := h.usage.TopicUsage(r.Context(), h.now().AddDate(0, 0, -days))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, TopicUsageResponse{Days: days, Topics: usage})
}
