// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/kidsask/api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	SetSuspension(ctx context.Context, id string, suspended bool) (*Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	Summary(ctx context.Context) (*Summary, error)
}

// ListFilter narrows admin listings. A zero Since includes every account.
type ListFilter struct {
	Since  time.Time
	Plan   string
	Limit  int
	Offset int
}

type Summary struct {
	Total            int
	FreeTrialUsers   int
	LockedAccounts   int
	PlanDistribution map[string]int
}

const accountColumns = `id, email, full_name, phone_number, country_code, password_hash, role,
		       login_attempts, last_login_attempt, last_login_date, last_login_ip,
		       last_login_country, account_locked, lock_until, password_reset_token,
		       password_reset_expires, plan, subscription_status, questions_remaining,
		       is_free_trial_user, subscription_start, subscription_end, payment_method,
		       created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (
			id, email, full_name, phone_number, country_code, password_hash, role,
			plan, subscription_status, questions_remaining, is_free_trial_user,
			subscription_start, subscription_end, payment_method
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.Email,
		a.FullName,
		a.PhoneNumber,
		a.CountryCode,
		a.PasswordHash,
		a.Role,
		a.Plan,
		a.Status,
		a.QuestionsRemaining,
		a.IsFreeTrialUser,
		a.StartDate,
		a.EndDate,
		a.PaymentMethod,
	)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	var a Account
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &a, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE lower(email) = lower($1)`

	var a Account
	err := r.db.GetContext(ctx, &a, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	return &a, nil
}

// SetSuspension applies or lifts an admin suspension. Lifting it also clears
// any cooldown and the failure counter.
func (r *repository) SetSuspension(
	ctx context.Context,
	id string,
	suspended bool,
) (*Account, error) {
	query := `
		UPDATE accounts
		SET account_locked = $2,
		    lock_until = NULL,
		    login_attempts = CASE WHEN $2 THEN login_attempts ELSE 0 END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	var a Account
	err := r.db.GetContext(ctx, &a, query, id, suspended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set suspension: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set suspension: %w", err)
	}

	return &a, nil
}

func (r *repository) List(
	ctx context.Context,
	filter ListFilter,
) ([]Account, int, error) {
	where := sq.And{}
	if !filter.Since.IsZero() {
		where = append(where, sq.GtOrEq{"created_at": filter.Since})
	}
	if filter.Plan != "" {
		where = append(where, sq.Eq{"plan": filter.Plan})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("accounts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	listQuery, listArgs, err := psql.Select(accountColumns).
		From("accounts").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, total, nil
}

func (r *repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE created_at >= $1`

	var n int
	if err := r.db.GetContext(ctx, &n, query, since); err != nil {
		return 0, fmt.Errorf("count accounts since: %w", err)
	}

	return n, nil
}

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	totals := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_free_trial_user) AS free_trial,
		       COUNT(*) FILTER (WHERE account_locked) AS locked
		FROM accounts`

	var counts struct {
		Total     int `db:"total"`
		FreeTrial int `db:"free_trial"`
		Locked    int `db:"locked"`
	}
	if err := r.db.GetContext(ctx, &counts, totals); err != nil {
		return nil, fmt.Errorf("summarize accounts: %w", err)
	}

	byPlan := `
		SELECT plan, COUNT(*) AS count
		FROM accounts
		GROUP BY plan`

	var rows []struct {
		Plan  string `db:"plan"`
		Count int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, byPlan); err != nil {
		return nil, fmt.Errorf("plan distribution: %w", err)
	}

	distribution := make(map[string]int, len(rows))
	for _, row := range rows {
		distribution[row.Plan] = row.Count
	}

	return &Summary{
		Total:            counts.Total,
		FreeTrialUsers:   counts.FreeTrial,
		LockedAccounts:   counts.Locked,
		PlanDistribution: distribution,
	}, nil
}
