// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

// State is the subscription record embedded in every account row.
type State struct {
	Plan               string    `db:"plan"`
	Status             string    `db:"subscription_status"`
	QuestionsRemaining int       `db:"questions_remaining"`
	IsFreeTrialUser    bool      `db:"is_free_trial_user"`
	StartDate          time.Time `db:"subscription_start"`
	EndDate            time.Time `db:"subscription_end"`
	PaymentMethod      string    `db:"payment_method"`
}

func (s State) IsActive(now time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	return s.EndDate.IsZero() || now.Before(s.EndDate)
}
