// AngelaMos | 2026
// dto.go

package account

import (
	"time"

	"github.com/kidsask/api/internal/subscription"
)

type RegisterRequest struct {
	FullName        string `json:"fullName"        validate:"required,min=3,max=100,fullname"`
	Email           string `json:"email"           validate:"required,email,max=255"`
	Password        string `json:"password"        validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	CountryCode     string `json:"countryCode"     validate:"omitempty,max=8"`
	PhoneNumber     string `json:"phoneNumber"     validate:"omitempty,max=32"`
	Plan            string `json:"plan"            validate:"omitempty,oneof=basic standard premium trial"`
	subscription.PaymentDetails
}

type SetStatusRequest struct {
	AccountLocked *bool `json:"accountLocked" validate:"required"`
}

type SetPlanRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// AccountResponse is the public projection of an account. It has no field
// for the password hash or the reset token.
type AccountResponse struct {
	ID               string                            `json:"id"`
	FullName         string                            `json:"fullName"`
	Email            string                            `json:"email"`
	PhoneNumber      string                            `json:"phoneNumber,omitempty"`
	CountryCode      string                            `json:"countryCode,omitempty"`
	Role             string                            `json:"role"`
	AccountLocked    bool                              `json:"accountLocked"`
	LockUntil        *time.Time                        `json:"lockUntil,omitempty"`
	LoginAttempts    int                               `json:"loginAttempts"`
	LastLoginDate    *time.Time                        `json:"lastLoginDate,omitempty"`
	LastLoginCountry string                            `json:"lastLoginCountry,omitempty"`
	Subscription     subscription.SubscriptionResponse `json:"subscription"`
	CreatedAt        time.Time                         `json:"createdAt"`
	UpdatedAt        time.Time                         `json:"updatedAt"`
}

type AccountListResponse struct {
	Users []AccountResponse `json:"users"`
}

type RecentUsersResponse struct {
	ByPlan map[string][]AccountResponse `json:"byPlan"`
	Total  int                          `json:"total"`
}

type RegistrationStats struct {
	Daily            int            `json:"daily"`
	Weekly           int            `json:"weekly"`
	Monthly          int            `json:"monthly"`
	Total            int            `json:"total"`
	PlanDistribution map[string]int `json:"planDistribution"`
	FreeTrialUsers   int            `json:"freeTrialUsers"`
	LockedAccounts   int            `json:"lockedAccounts"`
}

const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeAll   = "all"
)

type ListParams struct {
	Timeframe string
	Plan      string
	Page      int
	PageSize  int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	switch p.Timeframe {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
	default:
		p.Timeframe = TimeframeAll
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Since returns the lower creation bound for the timeframe, or the zero
// time when every account is included.
func (p *ListParams) Since(now time.Time) time.Time {
	switch p.Timeframe {
	case TimeframeDay:
		return now.AddDate(0, 0, -1)
	case TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case TimeframeMonth:
		return now.AddDate(0, -1, 0)
	default:
		return time.Time{}
	}
}

func ToAccountResponse(a *Account, catalog *subscription.Catalog) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		FullName:         a.FullName,
		Email:            a.Email,
		PhoneNumber:      a.PhoneNumber,
		CountryCode:      a.CountryCode,
		Role:             a.Role,
		AccountLocked:    a.AccountLocked,
		LockUntil:        a.LockUntil,
		LoginAttempts:    a.LoginAttempts,
		LastLoginDate:    a.LastLoginDate,
		LastLoginCountry: a.LastLoginCountry,
		Subscription:     catalog.ToResponse(a.State),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func ToAccountResponseList(accounts []Account, catalog *subscription.Catalog) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[i], catalog))
	}
	return responses
}
