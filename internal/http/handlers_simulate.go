package http

import (
	"net/http"

	"financas/internal/finance"
)

// handleSimulateInvestment projects compound growth. The annual_rate
// parameter is a percentage; it is converted to the equivalent monthly
// rate before simulating.
func (s *Server) handleSimulateInvestment(w http.ResponseWriter, r *http.Request) {
	principal := queryFloat(r, "principal", 0)
	monthly := queryFloat(r, "monthly", 0)
	annualRate := queryFloat(r, "annual_rate", 0)
	months := queryInt(r, "months", 0)

	rate, err := finance.MonthlyRate(annualRate)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	result, err := finance.Simulate(principal, monthly, rate, months)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Principal           float64   `json:"principal"`
		MonthlyContribution float64   `json:"monthly_contribution"`
		AnnualRatePercent   float64   `json:"annual_rate_percent"`
		MonthlyRate         float64   `json:"monthly_rate"`
		HorizonMonths       int       `json:"horizon_months"`
		ProjectedValue      float64   `json:"projected_value"`
		TotalInvested       float64   `json:"total_invested"`
		InterestEarned      float64   `json:"interest_earned"`
		Series              []float64 `json:"series"`
	}{
		Principal:           result.Principal,
		MonthlyContribution: result.MonthlyContribution,
		AnnualRatePercent:   annualRate,
		MonthlyRate:         result.Rate,
		HorizonMonths:       result.HorizonMonths,
		ProjectedValue:      result.ProjectedValue,
		TotalInvested:       result.TotalInvested,
		InterestEarned:      result.InterestEarned,
		Series:              result.Series,
	})
}

// handleSimulateGoal answers "how much per month to hit this target",
// and echoes back the projection for that contribution.
func (s *Server) handleSimulateGoal(w http.ResponseWriter, r *http.Request) {
	target := queryFloat(r, "target", 0)
	principal := queryFloat(r, "principal", 0)
	annualRate := queryFloat(r, "annual_rate", 0)
	months := queryInt(r, "months", 0)

	rate, err := finance.MonthlyRate(annualRate)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	contribution, err := finance.GoalContribution(target, principal, rate, months)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	projection, err := finance.Simulate(principal, contribution, rate, months)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Target              float64   `json:"target"`
		Principal           float64   `json:"principal"`
		AnnualRatePercent   float64   `json:"annual_rate_percent"`
		MonthlyRate         float64   `json:"monthly_rate"`
		HorizonMonths       int       `json:"horizon_months"`
		MonthlyContribution float64   `json:"monthly_contribution"`
		Series              []float64 `json:"series"`
	}{
		Target:              target,
		Principal:           principal,
		AnnualRatePercent:   annualRate,
		MonthlyRate:         rate,
		HorizonMonths:       months,
		MonthlyContribution: contribution,
		Series:              projection.Series,
	})
}
