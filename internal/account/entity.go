// AngelaMos | 2026
// entity.go

package account

import (
	"time"

	"github.com/kidsask/api/internal/subscription"
)

type Account struct {
	ID                   string     `db:"id"`
	Email                string     `db:"email"`
	FullName             string     `db:"full_name"`
	PhoneNumber          string     `db:"phone_number"`
	CountryCode          string     `db:"country_code"`
	PasswordHash         string     `db:"password_hash"`
	Role                 string     `db:"role"`
	LoginAttempts        int        `db:"login_attempts"`
	LastLoginAttempt     *time.Time `db:"last_login_attempt"`
	LastLoginDate        *time.Time `db:"last_login_date"`
	LastLoginIP          string     `db:"last_login_ip"`
	LastLoginCountry     string     `db:"last_login_country"`
	AccountLocked        bool       `db:"account_locked"`
	LockUntil            *time.Time `db:"lock_until"`
	PasswordResetToken   *string    `db:"password_reset_token"`
	PasswordResetExpires *time.Time `db:"password_reset_expires"`
	subscription.State
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const DefaultCountryCode = "+1"

type LockState int

const (
	LockActive LockState = iota
	LockCooldown
	LockSuspended
)

func (s LockState) String() string {
	switch s {
	case LockCooldown:
		return "cooldown_locked"
	case LockSuspended:
		return "admin_suspended"
	default:
		return "active"
	}
}

// LockState derives the login lock state at now. A lock without an expiry
// is an admin suspension; a lock with an expiry clears itself once passed.
func (a *Account) LockState(now time.Time) LockState {
	if a.AccountLocked && a.LockUntil == nil {
		return LockSuspended
	}
	if a.LockUntil != nil && now.Before(*a.LockUntil) {
		return LockCooldown
	}
	return LockActive
}

// HasExpiredCooldown reports whether a cooldown lock is still recorded but
// no longer in force.
func (a *Account) HasExpiredCooldown(now time.Time) bool {
	return a.LockUntil != nil && !now.Before(*a.LockUntil)
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
