// AngelaMos | 2026
// errors.go

package chat

import (
	"errors"
	"net/http"

	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/subscription"
)

var (
	ErrInvalidTopic        = errors.New("invalid topic")
	ErrUpstreamUnavailable = errors.New("answer service unavailable")
)

func AppError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidTopic):
		return core.NewAppError(err, "invalid topic selected", http.StatusBadRequest, "INVALID_TOPIC")
	case errors.Is(err, ErrUpstreamUnavailable):
		return core.NewAppError(
			err,
			"I'm having trouble answering right now, please try again in a moment",
			http.StatusServiceUnavailable,
			"UPSTREAM_UNAVAILABLE",
		)
	}
	return subscription.AppError(err)
}
