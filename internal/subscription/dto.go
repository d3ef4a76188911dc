// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

// PaymentDetails carries simulated card or PayPal data. Nothing is charged;
// the fields are only validated.
type PaymentDetails struct {
	Method     string `json:"paymentMethod"        validate:"omitempty,oneof=credit paypal"`
	CardNumber string `json:"cardNumber,omitempty" validate:"required_if=Method credit,omitempty,numeric,len=16"`
	CardExpiry string `json:"cardExpiry,omitempty" validate:"required_if=Method credit,omitempty,cardexpiry"`
	CardCVV    string `json:"cardCvv,omitempty"    validate:"required_if=Method credit,omitempty,numeric,min=3,max=4"`
}

const DefaultPaymentMethod = "credit"

// MethodOrDefault returns the chosen payment method, falling back to
// credit when the caller supplied none.
func (p PaymentDetails) MethodOrDefault() string {
	if p.Method == "" {
		return DefaultPaymentMethod
	}
	return p.Method
}

type UpgradeRequest struct {
	Plan string `json:"plan" validate:"required"`
	PaymentDetails
}

type SubscriptionResponse struct {
	Plan               string    `json:"plan"`
	Status             string    `json:"status"`
	QuestionsRemaining int       `json:"questionsRemaining"`
	Unlimited          bool      `json:"unlimited"`
	IsFreeTrialUser    bool      `json:"isFreeTrialUser"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	PaymentMethod      string    `json:"paymentMethod,omitempty"`
}

// QuotaStatus is the result of a successful quota check.
type QuotaStatus struct {
	Allowed bool `json:"allowed"`
	SubscriptionResponse
}

type PlansResponse struct {
	Plans []Plan `json:"plans"`
	Trial Plan   `json:"trial"`
}

func (c *Catalog) ToResponse(s State) SubscriptionResponse {
	return SubscriptionResponse{
		Plan:               s.Plan,
		Status:             s.Status,
		QuestionsRemaining: s.QuestionsRemaining,
		Unlimited:          !c.Capped(s),
		IsFreeTrialUser:    s.IsFreeTrialUser,
		StartDate:          s.StartDate,
		EndDate:            s.EndDate,
		PaymentMethod:      s.PaymentMethod,
	}
}
