// AngelaMos | 2026
// service_test.go

package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsask/api/internal/config"
	"github.com/kidsask/api/internal/core"
)

type memoryRepo struct {
	mu     sync.Mutex
	states map[string]State
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{states: make(map[string]State)}
}

func (m *memoryRepo) GetState(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &s, nil
}

func (m *memoryRepo) ConsumeQuestion(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok || s.QuestionsRemaining <= 0 {
		return nil, errNoQuestionsLeft
	}
	s.QuestionsRemaining--
	m.states[id] = s
	return &s, nil
}

func (m *memoryRepo) ApplyPlan(_ context.Context, id string, s State) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[id]; !ok {
		return nil, core.ErrNotFound
	}
	m.states[id] = s
	return &s, nil
}

func (m *memoryRepo) ExpireLapsed(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.states {
		if s.Status == StatusActive && !now.Before(s.EndDate) {
			s.Status = StatusExpired
			m.states[id] = s
			n++
		}
	}
	return n, nil
}

func testCatalog() *Catalog {
	return NewCatalog(map[string]config.PlanConfig{
		PlanBasic:    {Questions: 50, Days: 30},
		PlanStandard: {Questions: 200, Days: 90},
		PlanPremium:  {Questions: 500, Days: 365},
		PlanTrial:    {Questions: 10, Days: 30},
	})
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	return NewService(repo, testCatalog(), WithClock(func() time.Time { return fixedNow }))
}

func TestCheckAndConsumeBasicPlanExhaustsAfterFifty(t *testing.T) {
	repo := newMemoryRepo()
	catalog := testCatalog()
	initial, err := catalog.Initial(PlanBasic, "credit", fixedNow)
	require.NoError(t, err)
	require.Equal(t, 50, initial.QuestionsRemaining)
	repo.states["acc-1"] = initial

	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		status, err := svc.CheckAndConsume(ctx, "acc-1")
		require.NoError(t, err, "question %d", i+1)
		assert.True(t, status.Allowed)
		assert.Equal(t, 49-i, status.QuestionsRemaining)
	}

	_, err = svc.CheckAndConsume(ctx, "acc-1")
	require.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 0, repo.states["acc-1"].QuestionsRemaining)
}

func TestCheckAndConsumeTrialExhaustedDoesNotDecrement(t *testing.T) {
	repo := newMemoryRepo()
	catalog := testCatalog()
	trial, err := catalog.Initial(PlanTrial, "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, PlanBasic, trial.Plan)
	assert.True(t, trial.IsFreeTrialUser)
	trial.QuestionsRemaining = 0
	repo.states["acc-1"] = trial

	svc := newTestService(repo)

	_, err = svc.CheckAndConsume(context.Background(), "acc-1")
	require.ErrorIs(t, err, ErrTrialExhausted)
	assert.Equal(t, 0, repo.states["acc-1"].QuestionsRemaining)
}

func TestCheckAndConsumeUncappedPlanNeverDecrements(t *testing.T) {
	repo := newMemoryRepo()
	catalog := NewCatalog(map[string]config.PlanConfig{
		PlanBasic:   {Questions: 50, Days: 30},
		PlanPremium: {Questions: 0, Days: 365},
		PlanTrial:   {Questions: 10, Days: 30},
	})
	state, err := catalog.Initial(PlanPremium, "paypal", fixedNow)
	require.NoError(t, err)
	repo.states["acc-1"] = state

	svc := NewService(repo, catalog, WithClock(func() time.Time { return fixedNow }))

	for i := 0; i < 3; i++ {
		status, err := svc.CheckAndConsume(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.True(t, status.Unlimited)
	}
	assert.Equal(t, 0, repo.states["acc-1"].QuestionsRemaining)
}

func TestCheckAndConsumeInactiveSubscription(t *testing.T) {
	repo := newMemoryRepo()
	state, err := testCatalog().Initial(PlanStandard, "credit", fixedNow.AddDate(0, -4, 0))
	require.NoError(t, err)
	repo.states["acc-1"] = state

	svc := newTestService(repo)

	_, err = svc.CheckAndConsume(context.Background(), "acc-1")
	require.ErrorIs(t, err, ErrSubscriptionInactive)
	assert.Equal(t, 200, repo.states["acc-1"].QuestionsRemaining)
}

func TestCheckAndConsumeUnknownAccount(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.CheckAndConsume(context.Background(), "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestCheckAndConsumeConcurrentNeverGoesNegative(t *testing.T) {
	repo := newMemoryRepo()
	state, err := testCatalog().Initial(PlanTrial, "", fixedNow)
	require.NoError(t, err)
	repo.states["acc-1"] = state

	svc := newTestService(repo)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CheckAndConsume(context.Background(), "acc-1"); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
	assert.Equal(t, 0, repo.states["acc-1"].QuestionsRemaining)
}

func TestRecordQuestionAskedFloorsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	state, err := testCatalog().Initial(PlanBasic, "credit", fixedNow)
	require.NoError(t, err)
	state.QuestionsRemaining = 1
	repo.states["acc-1"] = state

	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.RecordQuestionAsked(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuestionsRemaining)

	got, err = svc.RecordQuestionAsked(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuestionsRemaining)
	assert.Equal(t, 0, repo.states["acc-1"].QuestionsRemaining)
}

func TestUpgradePlanResetsInsteadOfAccumulating(t *testing.T) {
	repo := newMemoryRepo()
	state, err := testCatalog().Initial(PlanTrial, "", fixedNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	state.QuestionsRemaining = 7
	repo.states["acc-1"] = state

	svc := newTestService(repo)
	req := UpgradeRequest{
		Plan: PlanPremium,
		PaymentDetails: PaymentDetails{
			Method:     "credit",
			CardNumber: "4111111111111111",
			CardExpiry: "12/29",
			CardCVV:    "123",
		},
	}

	resp, err := svc.UpgradePlan(context.Background(), "acc-1", req)
	require.NoError(t, err)
	assert.Equal(t, PlanPremium, resp.Plan)
	assert.Equal(t, 500, resp.QuestionsRemaining)
	assert.False(t, resp.IsFreeTrialUser)
	assert.Equal(t, StatusActive, resp.Status)
	assert.Equal(t, fixedNow, resp.StartDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 365), resp.EndDate)

	resp, err = svc.UpgradePlan(context.Background(), "acc-1", req)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.QuestionsRemaining)
}

func TestUpgradePlanWithoutPaymentDetails(t *testing.T) {
	repo := newMemoryRepo()
	state, err := testCatalog().Initial(PlanBasic, "paypal", fixedNow.AddDate(0, 0, -20))
	require.NoError(t, err)
	state.QuestionsRemaining = 3
	repo.states["acc-1"] = state

	resp, err := newTestService(repo).UpgradePlan(context.Background(), "acc-1", UpgradeRequest{Plan: PlanPremium})
	require.NoError(t, err)
	assert.Equal(t, 500, resp.QuestionsRemaining)
	assert.Equal(t, fixedNow.AddDate(0, 0, 365), resp.EndDate)
	assert.Equal(t, DefaultPaymentMethod, resp.PaymentMethod)
	assert.Equal(t, StatusActive, resp.Status)
}

func TestUpgradePlanFailures(t *testing.T) {
	repo := newMemoryRepo()
	state, err := testCatalog().Initial(PlanBasic, "credit", fixedNow)
	require.NoError(t, err)
	repo.states["acc-1"] = state
	svc := newTestService(repo)
	ctx := context.Background()
	payment := PaymentDetails{Method: "paypal"}

	_, err = svc.UpgradePlan(ctx, "acc-1", UpgradeRequest{Plan: "platinum", PaymentDetails: payment})
	require.ErrorIs(t, err, ErrInvalidPlan)

	_, err = svc.UpgradePlan(ctx, "acc-1", UpgradeRequest{Plan: PlanTrial, PaymentDetails: payment})
	require.ErrorIs(t, err, ErrInvalidPlan)

	_, err = svc.UpgradePlan(ctx, "missing", UpgradeRequest{Plan: PlanStandard, PaymentDetails: payment})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpireLapsed(t *testing.T) {
	repo := newMemoryRepo()
	catalog := testCatalog()
	lapsed, err := catalog.Initial(PlanBasic, "credit", fixedNow.AddDate(0, -2, 0))
	require.NoError(t, err)
	current, err := catalog.Initial(PlanBasic, "credit", fixedNow)
	require.NoError(t, err)
	repo.states["lapsed"] = lapsed
	repo.states["current"] = current

	n, err := newTestService(repo).ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusExpired, repo.states["lapsed"].Status)
	assert.Equal(t, StatusActive, repo.states["current"].Status)
}
