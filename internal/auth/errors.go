// AngelaMos | 2026
// errors.go

package auth

import (
	"errors"
	"net/http"

	"github.com/kidsask/api/internal/account"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/subscription"
)

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountTemporarilyLocked = errors.New("account temporarily locked")
	ErrAccountSuspended         = errors.New("account suspended")
	ErrInvalidOrExpiredToken    = errors.New("invalid or expired reset token")
)

// AppError converts authentication failures into their API form.
func AppError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return core.NewAppError(
			err,
			"invalid email or password",
			http.StatusUnauthorized,
			"INVALID_CREDENTIALS",
		)
	case errors.Is(err, ErrAccountTemporarilyLocked):
		return core.NewAppError(
			err,
			"too many failed attempts, try again later or reset your password",
			http.StatusLocked,
			"ACCOUNT_LOCKED",
		)
	case errors.Is(err, ErrAccountSuspended):
		return core.NewAppError(
			err,
			"this account has been suspended, contact support",
			http.StatusForbidden,
			"ACCOUNT_SUSPENDED",
		)
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return core.NewAppError(
			err,
			"password reset link is invalid or has expired",
			http.StatusBadRequest,
			"INVALID_OR_EXPIRED_TOKEN",
		)
	case errors.Is(err, core.ErrWeakPassword):
		return core.WeakPasswordError()
	case errors.Is(err, account.ErrEmailExists):
		return core.DuplicateError("email")
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError("account")
	}
	return subscription.AppError(err)
}
