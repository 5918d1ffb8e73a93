package invest

import "time"

// Projection is the expected return schedule for a principal placed in a
// plan at a given start date.
type Projection struct {
	Plan          PlanType
	Amount        float64
	DailyReturn   float64
	TotalEarnings float64
	TotalPayout   float64
	StartDate     time.Time
	EndDate       time.Time
	// WithdrawableAt is when earnings unlock, counted from the start date.
	WithdrawableAt time.Time
}

// Project computes the return schedule. Amount must satisfy the plan
// bounds.
func Project(plan Plan, amount float64, start time.Time) (Projection, error) {
	if err := plan.Validate(amount); err != nil {
		return Projection{}, err
	}
	daily := amount * plan.DailyROI / 100
	total := daily * float64(plan.DurationDays)
	start = start.UTC().Truncate(24 * time.Hour)
	return Projection{
		Plan:           plan.Type,
		Amount:         amount,
		DailyReturn:    daily,
		TotalEarnings:  total,
		TotalPayout:    amount + total,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, plan.DurationDays),
		WithdrawableAt: start.AddDate(0, 0, plan.WithdrawalPeriod),
	}, nil
}

// Holding is a placed investment, as summarised for portfolio statistics.
type Holding struct {
	Plan     PlanType
	Amount   float64
	Earnings float64
	Active   bool
}

// Stats aggregates a portfolio of holdings.
type Stats struct {
	TotalInvested float64
	TotalEarnings float64
	TotalBalance  float64
	ActiveCount   int
	ClosedCount   int
	// ROI is total earnings over total invested, as a percentage. Zero
	// when nothing is invested.
	ROI float64
}

// Summarize folds holdings into portfolio statistics.
func Summarize(holdings []Holding) Stats {
	var s Stats
	for _, h := range holdings {
		s.TotalInvested += h.Amount
		s.TotalEarnings += h.Earnings
		if h.Active {
			s.ActiveCount++
		} else {
			s.ClosedCount++
		}
	}
	s.TotalBalance = s.TotalInvested + s.TotalEarnings
	if s.TotalInvested > 0 {
		s.ROI = s.TotalEarnings / s.TotalInvested * 100
	}
	return s
}
