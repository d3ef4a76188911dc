// AngelaMos | 2026
// errors.go

package subscription

import (
	"errors"
	"net/http"

	"github.com/kidsask/api/internal/core"
)

var (
	ErrTrialExhausted       = errors.New("free trial exhausted")
	ErrQuotaExhausted       = errors.New("question quota exhausted")
	ErrSubscriptionInactive = errors.New("subscription inactive")
	ErrInvalidPlan          = errors.New("invalid plan")
)

// errNoQuestionsLeft is returned by the repository when a conditional
// decrement matched no row.
var errNoQuestionsLeft = errors.New("no questions remaining")

// AppError converts quota and plan failures into their API form. Other
// errors are returned unchanged.
func AppError(err error) error {
	switch {
	case errors.Is(err, ErrTrialExhausted):
		return core.NewAppError(
			err,
			"your free trial questions are used up, upgrade your plan to keep asking",
			http.StatusPaymentRequired,
			"TRIAL_EXHAUSTED",
		)
	case errors.Is(err, ErrQuotaExhausted):
		return core.NewAppError(
			err,
			"you have used all questions in your plan, upgrade to keep asking",
			http.StatusPaymentRequired,
			"QUOTA_EXHAUSTED",
		)
	case errors.Is(err, ErrSubscriptionInactive):
		return core.NewAppError(
			err,
			"your subscription is not active, renew or upgrade your plan",
			http.StatusPaymentRequired,
			"SUBSCRIPTION_INACTIVE",
		)
	case errors.Is(err, ErrInvalidPlan):
		return core.NewAppError(
			err,
			"plan must be one of basic, standard or premium",
			http.StatusBadRequest,
			"INVALID_PLAN",
		)
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError("account")
	}
	return err
}
