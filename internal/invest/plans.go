// Package invest holds the investment plan catalog and return projection
// arithmetic. Plans are static platform configuration, not database rows.
package invest

import "errors"

// PlanType identifies a plan tier.
type PlanType string

const (
	PlanBasic      PlanType = "basic"
	PlanAmateur    PlanType = "amateur"
	PlanRetirement PlanType = "retirement"
	PlanVIP        PlanType = "vip"
)

// ErrUnknownPlan reports a lookup for a plan type outside the catalog.
var ErrUnknownPlan = errors.New("unknown investment plan")

// ErrAmountOutOfRange reports a principal outside the plan's bounds.
var ErrAmountOutOfRange = errors.New("amount outside plan range")

// Plan describes one investment tier. Amounts are in whole platform
// currency units; DailyROI is a percentage.
type Plan struct {
	Type             PlanType
	Name             string
	MinAmount        float64
	MaxAmount        float64
	DailyROI         float64
	DurationDays     int
	WithdrawalPeriod int
	Features         []string
	Popular          bool
}

var catalog = []Plan{
	{
		Type:             PlanBasic,
		Name:             "Basic Plan",
		MinAmount:        200,
		MaxAmount:        999,
		DailyROI:         2.5,
		DurationDays:     7,
		WithdrawalPeriod: 20,
		Features: []string{
			"Perfect for beginners",
			"Steady returns with minimal risk",
			"Access to basic educational resources",
			"24/7 customer support",
		},
	},
	{
		Type:             PlanAmateur,
		Name:             "Amateur Plan",
		MinAmount:        1000,
		MaxAmount:        1999,
		DailyROI:         3.5,
		DurationDays:     7,
		WithdrawalPeriod: 20,
		Features: []string{
			"Designed for intermediate investors",
			"Higher returns with moderate risk",
			"Exclusive webinars and expert advice",
			"Priority customer support",
		},
		Popular: true,
	},
	{
		Type:             PlanRetirement,
		Name:             "Retirement Plan",
		MinAmount:        2000,
		MaxAmount:        4999,
		DailyROI:         4.5,
		DurationDays:     7,
		WithdrawalPeriod: 20,
		Features: []string{
			"Long-term investment strategy",
			"Consistent returns for financial stability",
			"Personalized financial planning",
			"Eligible for loan services",
		},
	},
	{
		Type:             PlanVIP,
		Name:             "VIP Plan",
		MinAmount:        5000,
		MaxAmount:        50000,
		DailyROI:         5.0,
		DurationDays:     7,
		WithdrawalPeriod: 20,
		Features: []string{
			"Exclusive benefits for high-value investors",
			"Maximum returns with premium support",
			"Dedicated account manager",
			"VIP customer service",
		},
	},
}

// Plans returns the full catalog in ascending tier order.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// PlanByType looks up one plan.
func PlanByType(t PlanType) (Plan, error) {
	for _, p := range catalog {
		if p.Type == t {
			return p, nil
		}
	}
	return Plan{}, ErrUnknownPlan
}

// Validate checks a proposed principal against the plan bounds.
func (p Plan) Validate(amount float64) error {
	if amount < p.MinAmount || amount > p.MaxAmount {
		return ErrAmountOutOfRange
	}
	return nil
}
