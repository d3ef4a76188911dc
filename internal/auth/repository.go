// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kidsask/api/internal/core"
)

// Repository holds the credential mutations on the accounts table. Every
// write here is a single conditional statement so concurrent logins and
// resets on the same account cannot lose updates.
type Repository interface {
	RecordFailedLogin(
		ctx context.Context,
		accountID string,
		now time.Time,
		threshold int,
		lockUntil time.Time,
	) (*FailedLogin, error)
	RecordSuccessfulLogin(ctx context.Context, accountID string, login SuccessfulLogin) error
	ClearExpiredCooldown(ctx context.Context, accountID string, now time.Time) error
	UpdatePassword(ctx context.Context, accountID, passwordHash string) error
	SetResetToken(ctx context.Context, accountID, tokenHash string, expires time.Time) error
	ResetTokenValid(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	ConsumeResetToken(
		ctx context.Context,
		tokenHash, passwordHash string,
		now time.Time,
	) (string, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) RecordFailedLogin(
	ctx context.Context,
	accountID string,
	now time.Time,
	threshold int,
	lockUntil time.Time,
) (*FailedLogin, error) {
	query := `
		UPDATE accounts
		SET login_attempts = login_attempts + 1,
		    last_login_attempt = $2,
		    account_locked = CASE WHEN login_attempts + 1 >= $3 THEN TRUE ELSE account_locked END,
		    lock_until = CASE WHEN login_attempts + 1 >= $3 THEN $4 ELSE lock_until END,
		    updated_at = NOW()
		WHERE id = $1
		  AND NOT (account_locked AND lock_until IS NULL)
		  AND (lock_until IS NULL OR lock_until <= $2)
		RETURNING login_attempts, lock_until`

	var failed FailedLogin
	err := r.db.GetContext(ctx, &failed, query, accountID, now, threshold, lockUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.lockedOrMissing(ctx, accountID, now)
	}
	if err != nil {
		return nil, fmt.Errorf("record failed login: %w", err)
	}

	return &failed, nil
}

// lockedOrMissing reports why the guarded failure update matched no row,
// telling a missing account apart from an existing lock.
func (r *repository) lockedOrMissing(ctx context.Context, accountID string, now time.Time) error {
	query := `SELECT account_locked, lock_until FROM accounts WHERE id = $1`

	var lock struct {
		Locked    bool       `db:"account_locked"`
		LockUntil *time.Time `db:"lock_until"`
	}
	err := r.db.GetContext(ctx, &lock, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record failed login: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}

	if lock.Locked && lock.LockUntil == nil {
		return fmt.Errorf("record failed login: %w", ErrAccountSuspended)
	}
	if lock.LockUntil != nil && now.Before(*lock.LockUntil) {
		return fmt.Errorf("record failed login: %w", ErrAccountTemporarilyLocked)
	}
	return fmt.Errorf("record failed login: lock changed concurrently: %w", ErrAccountTemporarilyLocked)
}

// RecordSuccessfulLogin resets the failure counter and clears any cooldown.
// It refuses to touch an account that an admin suspended in the meantime.
func (r *repository) RecordSuccessfulLogin(
	ctx context.Context,
	accountID string,
	login SuccessfulLogin,
) error {
	query := `
		UPDATE accounts
		SET login_attempts = 0,
		    account_locked = FALSE,
		    lock_until = NULL,
		    last_login_date = $2,
		    last_login_ip = $3,
		    last_login_country = $4,
		    updated_at = NOW()
		WHERE id = $1
		  AND NOT (account_locked AND lock_until IS NULL)`

	result, err := r.db.ExecContext(ctx, query, accountID, login.At, login.IP, login.Country)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("record successful login: %w", ErrAccountSuspended)
	}

	return nil
}

func (r *repository) ClearExpiredCooldown(
	ctx context.Context,
	accountID string,
	now time.Time,
) error {
	query := `
		UPDATE accounts
		SET login_attempts = 0,
		    account_locked = FALSE,
		    lock_until = NULL,
		    updated_at = NOW()
		WHERE id = $1
		  AND lock_until IS NOT NULL
		  AND lock_until <= $2`

	if _, err := r.db.ExecContext(ctx, query, accountID, now); err != nil {
		return fmt.Errorf("clear cooldown: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	accountID, passwordHash string,
) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, accountID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

// SetResetToken stores the hash of a fresh reset token, replacing any
// token issued before it.
func (r *repository) SetResetToken(
	ctx context.Context,
	accountID, tokenHash string,
	expires time.Time,
) error {
	query := `
		UPDATE accounts
		SET password_reset_token = $2,
		    password_reset_expires = $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, accountID, tokenHash, expires)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set reset token: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ResetTokenValid(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE password_reset_token = $1
			  AND password_reset_expires > $2
		)`

	var valid bool
	if err := r.db.GetContext(ctx, &valid, query, tokenHash, now); err != nil {
		return false, fmt.Errorf("check reset token: %w", err)
	}

	return valid, nil
}

// ConsumeResetToken sets the new password and clears the token in one
// statement, so a token can be redeemed at most once. A cooldown lock is
// lifted; an admin suspension is left in place.
func (r *repository) ConsumeResetToken(
	ctx context.Context,
	tokenHash, passwordHash string,
	now time.Time,
) (string, error) {
	query := `
		UPDATE accounts
		SET password_hash = $2,
		    password_reset_token = NULL,
		    password_reset_expires = NULL,
		    login_attempts = 0,
		    account_locked = CASE WHEN lock_until IS NULL THEN account_locked ELSE FALSE END,
		    lock_until = NULL,
		    updated_at = NOW()
		WHERE password_reset_token = $1
		  AND password_reset_expires > $3
		RETURNING id`

	var accountID string
	err := r.db.GetContext(ctx, &accountID, query, tokenHash, passwordHash, now)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("consume reset token: %w", ErrInvalidOrExpiredToken)
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	return accountID, nil
}

func (r *repository) PurgeExpiredResetTokens(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	query := `
		UPDATE accounts
		SET password_reset_token = NULL,
		    password_reset_expires = NULL
		WHERE password_reset_token IS NOT NULL
		  AND password_reset_expires <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}

	return result.RowsAffected()
}
