// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// FailedLogin is the counter state left behind by one failed attempt.
type FailedLogin struct {
	Attempts  int        `db:"login_attempts"`
	LockUntil *time.Time `db:"lock_until"`
}

// Locked reports whether this failure started a cooldown.
func (f *FailedLogin) Locked(now time.Time) bool {
	return f.LockUntil != nil && now.Before(*f.LockUntil)
}

// SuccessfulLogin carries the audit fields written on a good login.
type SuccessfulLogin struct {
	At      time.Time
	IP      string
	Country string
}
