// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kidsask/api/internal/metrics"
)

type Service struct {
	repo    Repository
	catalog *Catalog
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

func NewService(repo Repository, catalog *Catalog, opts ...Option) *Service {
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

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// CanAsk loads the account's subscription and reports whether one more
// question is allowed. It never mutates state.
func (s *Service) CanAsk(ctx context.Context, accountID string) (*State, error) {
	state, err := s.repo.GetState(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.CanAsk(*state, s.now()); err != nil {
		recordDenial(err)
		return state, err
	}

	return state, nil
}

// RecordQuestionAsked spends one question for capped plans. The allowance
// is floored at zero.
func (s *Service) RecordQuestionAsked(ctx context.Context, accountID string) (*State, error) {
	state, err := s.repo.GetState(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !s.catalog.Capped(*state) {
		return state, nil
	}

	updated, err := s.repo.ConsumeQuestion(ctx, accountID)
	if errors.Is(err, errNoQuestionsLeft) {
		state.QuestionsRemaining = 0
		return state, nil
	}
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// CheckAndConsume checks the allowance and spends one question in one
// conditional write. A concurrent request that takes the last question
// first makes this call fail with the exhausted reason.
func (s *Service) CheckAndConsume(ctx context.Context, accountID string) (*QuotaStatus, error) {
	state, err := s.CanAsk(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.catalog.Capped(*state) {
		updated, err := s.repo.ConsumeQuestion(ctx, accountID)
		if errors.Is(err, errNoQuestionsLeft) {
			reason := exhaustedReason(*state)
			recordDenial(reason)
			return nil, reason
		}
		if err != nil {
			return nil, err
		}
		state = updated
	}

	return &QuotaStatus{
		Allowed:              true,
		SubscriptionResponse: s.catalog.ToResponse(*state),
	}, nil
}

// UpgradePlan replaces the subscription with a fresh period of the
// requested plan. Remaining questions are reset, never accumulated.
func (s *Service) UpgradePlan(
	ctx context.Context,
	accountID string,
	req UpgradeRequest,
) (*SubscriptionResponse, error) {
	plan, err := s.catalog.Lookup(req.Plan)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.ApplyPlan(ctx, accountID, activate(plan, req.MethodOrDefault(), s.now()))
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "subscription upgraded",
		"account_id", accountID,
		"plan", plan.Name,
	)

	resp := s.catalog.ToResponse(*updated)
	return &resp, nil
}

// OverridePlan is the admin variant of UpgradePlan and skips payment.
func (s *Service) OverridePlan(
	ctx context.Context,
	accountID, planName string,
) (*SubscriptionResponse, error) {
	plan, err := s.catalog.Lookup(planName)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.ApplyPlan(ctx, accountID, activate(plan, "", s.now()))
	if err != nil {
		return nil, err
	}

	resp := s.catalog.ToResponse(*updated)
	return &resp, nil
}

func (s *Service) GetSubscription(
	ctx context.Context,
	accountID string,
) (*SubscriptionResponse, error) {
	state, err := s.repo.GetState(ctx, accountID)
	if err != nil {
		return nil, err
	}

	resp := s.catalog.ToResponse(*state)
	return &resp, nil
}

// ExpireLapsed marks active subscriptions past their end date as expired.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	return s.repo.ExpireLapsed(ctx, s.now())
}

func recordDenial(err error) {
	switch {
	case errors.Is(err, ErrTrialExhausted):
		metrics.QuotaDenials.WithLabelValues("trial_exhausted").Inc()
	case errors.Is(err, ErrQuotaExhausted):
		metrics.QuotaDenials.WithLabelValues("quota_exhausted").Inc()
	case errors.Is(err, ErrSubscriptionInactive):
		metrics.QuotaDenials.WithLabelValues("inactive").Inc()
	}
}
