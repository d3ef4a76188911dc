// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kidsask/api/internal/core"
)

type Repository interface {
	GetState(ctx context.Context, accountID string) (*State, error)
	ConsumeQuestion(ctx context.Context, accountID string) (*State, error)
	ApplyPlan(ctx context.Context, accountID string, state State) (*State, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

const stateColumns = `plan, subscription_status, questions_remaining,
		       is_free_trial_user, subscription_start, subscription_end, payment_method`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetState(
	ctx context.Context,
	accountID string,
) (*State, error) {
	query := `
		SELECT ` + stateColumns + `
		FROM accounts
		WHERE id = $1`

	var state State
	err := r.db.GetContext(ctx, &state, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &state, nil
}

// ConsumeQuestion decrements the allowance by one in a single statement so
// concurrent requests can never take it below zero.
func (r *repository) ConsumeQuestion(
	ctx context.Context,
	accountID string,
) (*State, error) {
	query := `
		UPDATE accounts
		SET questions_remaining = questions_remaining - 1, updated_at = NOW()
		WHERE id = $1 AND questions_remaining > 0
		RETURNING ` + stateColumns

	var state State
	err := r.db.GetContext(ctx, &state, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume question: %w", errNoQuestionsLeft)
	}
	if err != nil {
		return nil, fmt.Errorf("consume question: %w", err)
	}

	return &state, nil
}

func (r *repository) ApplyPlan(
	ctx context.Context,
	accountID string,
	s State,
) (*State, error) {
	query := `
		UPDATE accounts
		SET plan = $2, subscription_status = $3, questions_remaining = $4,
		    is_free_trial_user = $5, subscription_start = $6,
		    subscription_end = $7, payment_method = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + stateColumns

	var state State
	err := r.db.GetContext(ctx, &state, query,
		accountID,
		s.Plan,
		s.Status,
		s.QuestionsRemaining,
		s.IsFreeTrialUser,
		s.StartDate,
		s.EndDate,
		s.PaymentMethod,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("apply plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("apply plan: %w", err)
	}

	return &state, nil
}

func (r *repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE accounts
		SET subscription_status = 'expired', updated_at = NOW()
		WHERE subscription_status = 'active' AND subscription_end <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	return rows, nil
}
