// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/subscription"
)

var ErrEmailExists = errors.New("email already exists")

type Service struct {
	repo    Repository
	catalog *subscription.Catalog
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, catalog *subscription.Catalog, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *subscription.Catalog {
	return s.catalog
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with its password hashed and its
// subscription initialised from the plan table.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AccountResponse, error) {
	if err := core.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	plan := req.Plan
	if plan == "" {
		plan = subscription.PlanTrial
	}
	method := ""
	if plan != subscription.PlanTrial {
		method = req.MethodOrDefault()
	}

	now := s.now()
	state, err := s.catalog.Initial(plan, method, now)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	countryCode := strings.TrimSpace(req.CountryCode)
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	a := &Account{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		CountryCode:  countryCode,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		State:        state,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	slog.InfoContext(ctx, "account registered",
		"account_id", a.ID,
		"plan", plan,
	)

	resp := ToAccountResponse(a, s.catalog)
	return &resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail looks an account up by its normalized email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *Service) GetProfile(ctx context.Context, id string) (*AccountResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ToAccountResponse(a, s.catalog)
	return &resp, nil
}

// SetSuspension is the admin switch. Suspending sets an indefinite lock;
// activating clears every lock and the failure counter.
func (s *Service) SetSuspension(
	ctx context.Context,
	id string,
	suspended bool,
) (*AccountResponse, error) {
	a, err := s.repo.SetSuspension(ctx, id, suspended)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "account suspension changed",
		"account_id", id,
		"suspended", suspended,
	)

	resp := ToAccountResponse(a, s.catalog)
	return &resp, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListParams,
) ([]AccountResponse, int, error) {
	params.Normalize()

	accounts, total, err := s.repo.List(ctx, ListFilter{
		Since:  params.Since(s.now()),
		Plan:   params.Plan,
		Limit:  params.PageSize,
		Offset: params.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}

	return ToAccountResponseList(accounts, s.catalog), total, nil
}

// RecentUsersByPlan groups the accounts created in the last month by plan.
// Free trial accounts are reported under the trial key.
func (s *Service) RecentUsersByPlan(
	ctx context.Context,
	limit int,
) (*RecentUsersResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	accounts, _, err := s.repo.List(ctx, ListFilter{
		Since: s.now().AddDate(0, -1, 0),
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]AccountResponse)
	for i := range accounts {
		key := accounts[i].Plan
		if accounts[i].IsFreeTrialUser {
			key = subscription.PlanTrial
		}
		grouped[key] = append(grouped[key], ToAccountResponse(&accounts[i], s.catalog))
	}

	return &RecentUsersResponse{ByPlan: grouped, Total: len(accounts)}, nil
}

func (s *Service) RegistrationStats(ctx context.Context) (*RegistrationStats, error) {
	now := s.now()

	daily, err := s.repo.CountSince(ctx, now.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	weekly, err := s.repo.CountSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	monthly, err := s.repo.CountSince(ctx, now.AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}

	return &RegistrationStats{
		Daily:            daily,
		Weekly:           weekly,
		Monthly:          monthly,
		Total:            summary.Total,
		PlanDistribution: summary.PlanDistribution,
		FreeTrialUsers:   summary.FreeTrialUsers,
		LockedAccounts:   summary.LockedAccounts,
	}, nil
}
