// AngelaMos | 2026
// plan.go

package subscription

import (
	"fmt"
	"sort"
	"time"

	"github.com/kidsask/api/internal/config"
)

const (
	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"
	PlanTrial    = "trial"
)

const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Plan is one row of the plan table. Questions of zero means uncapped.
type Plan struct {
	Name      string `json:"name"`
	Questions int    `json:"questions"`
	Days      int    `json:"days"`
}

func (p Plan) Capped() bool {
	return p.Questions > 0
}

func (p Plan) EndDate(start time.Time) time.Time {
	return start.AddDate(0, 0, p.Days)
}

type Catalog struct {
	plans map[string]Plan
}

func NewCatalog(cfg map[string]config.PlanConfig) *Catalog {
	plans := make(map[string]Plan, len(cfg))
	for name, pc := range cfg {
		plans[name] = Plan{Name: name, Questions: pc.Questions, Days: pc.Days}
	}
	return &Catalog{plans: plans}
}

// Lookup returns a purchasable plan. The trial allowance is not
// purchasable and is reached through Trial.
func (c *Catalog) Lookup(name string) (Plan, error) {
	if name == PlanTrial {
		return Plan{}, fmt.Errorf("lookup plan %q: %w", name, ErrInvalidPlan)
	}
	plan, ok := c.plans[name]
	if !ok {
		return Plan{}, fmt.Errorf("lookup plan %q: %w", name, ErrInvalidPlan)
	}
	return plan, nil
}

func (c *Catalog) Trial() Plan {
	return c.plans[PlanTrial]
}

// Paid lists purchasable plans ordered by allowance.
func (c *Catalog) Paid() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for name, plan := range c.plans {
		if name == PlanTrial {
			continue
		}
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Questions == out[j].Questions {
			return out[i].Name < out[j].Name
		}
		if out[i].Questions == 0 {
			return false
		}
		if out[j].Questions == 0 {
			return true
		}
		return out[i].Questions < out[j].Questions
	})
	return out
}

// Capped reports whether the allowance of s is enforced. Free trial
// accounts follow the trial row regardless of their stored plan. Plans
// missing from the table are treated as capped.
func (c *Catalog) Capped(s State) bool {
	if s.IsFreeTrialUser {
		return c.Trial().Capped()
	}
	plan, ok := c.plans[s.Plan]
	if !ok {
		return true
	}
	return plan.Capped()
}

// CanAsk decides whether one more question is allowed for s at now.
func (c *Catalog) CanAsk(s State, now time.Time) error {
	if !s.IsActive(now) {
		return ErrSubscriptionInactive
	}
	if !c.Capped(s) {
		return nil
	}
	if s.QuestionsRemaining <= 0 {
		return exhaustedReason(s)
	}
	return nil
}

// Initial builds the subscription state of a freshly registered account.
// The trial plan is stored as basic with the free trial flag set.
func (c *Catalog) Initial(planName, paymentMethod string, now time.Time) (State, error) {
	if planName == PlanTrial {
		trial := c.Trial()
		return State{
			Plan:               PlanBasic,
			Status:             StatusActive,
			QuestionsRemaining: trial.Questions,
			IsFreeTrialUser:    true,
			StartDate:          now,
			EndDate:            trial.EndDate(now),
		}, nil
	}

	plan, err := c.Lookup(planName)
	if err != nil {
		return State{}, err
	}
	return activate(plan, paymentMethod, now), nil
}

func activate(plan Plan, paymentMethod string, now time.Time) State {
	return State{
		Plan:               plan.Name,
		Status:             StatusActive,
		QuestionsRemaining: plan.Questions,
		IsFreeTrialUser:    false,
		StartDate:          now,
		EndDate:            plan.EndDate(now),
		PaymentMethod:      paymentMethod,
	}
}

func exhaustedReason(s State) error {
	if s.IsFreeTrialUser {
		return ErrTrialExhausted
	}
	return ErrQuotaExhausted
}
