package finance

import (
	"fmt"
	"math"
)

// SimulationResult is the projection of a monthly compounding plan.
// Rate is the monthly fractional rate (0.01 = 1% a month). Series has
// HorizonMonths+1 entries, starting at the principal.
type SimulationResult struct {
	Principal           float64
	MonthlyContribution float64
	Rate                float64
	HorizonMonths       int
	ProjectedValue      float64
	TotalInvested       float64
	InterestEarned      float64
	Series              []float64
}

// Simulate projects compound growth: each month the current value
// accrues one period of interest and then receives the contribution.
func Simulate(principal, monthlyContribution, rate float64, horizonMonths int) (SimulationResult, error) {
	if horizonMonths <= 0 {
		return SimulationResult{}, fmt.Errorf("%w: horizon must be at least 1 month, got %d", ErrInvalidParameter, horizonMonths)
	}
	if rate < -1 {
		return SimulationResult{}, fmt.Errorf("%w: rate %v below -100%%", ErrInvalidParameter, rate)
	}

	series := make([]float64, horizonMonths+1)
	value := principal
	series[0] = value
	for i := 1; i <= horizonMonths; i++ {
		value = value*(1+rate) + monthlyContribution
		series[i] = value
	}

	invested := principal + monthlyContribution*float64(horizonMonths)
	return SimulationResult{
		Principal:           principal,
		MonthlyContribution: monthlyContribution,
		Rate:                rate,
		HorizonMonths:       horizonMonths,
		ProjectedValue:      value,
		TotalInvested:       invested,
		InterestEarned:      value - invested,
		Series:              series,
	}, nil
}

// MonthlyRate converts an annual percentage rate to the equivalent
// monthly fractional rate: (1 + p/100)^(1/12) - 1.
func MonthlyRate(annualPercent float64) (float64, error) {
	if annualPercent <= -100 {
		return 0, fmt.Errorf("%w: annual rate %v%% at or below -100%%", ErrInvalidParameter, annualPercent)
	}
	return math.Pow(1+annualPercent/100, 1.0/12) - 1, nil
}

// GoalContribution returns the monthly contribution needed to grow
// principal to target in the given number of months at the given
// monthly rate (the standard PMT rearrangement). At rate 0 it
// degenerates to linear saving.
func GoalContribution(target, principal, rate float64, months int) (float64, error) {
	if months <= 0 {
		return 0, fmt.Errorf("%w: months must be at least 1, got %d", ErrInvalidParameter, months)
	}
	if rate < -1 {
		return 0, fmt.Errorf("%w: rate %v below -100%%", ErrInvalidParameter, rate)
	}
	if target <= 0 {
		return 0, fmt.Errorf("%w: target must be positive, got %v", ErrInvalidParameter, target)
	}
	if rate == 0 {
		return (target - principal) / float64(months), nil
	}
	growth := math.Pow(1+rate, float64(months))
	return (target - principal*growth) / ((growth - 1) / rate), nil
}
