package models

import "time"

// BatchResult summarizes one batch processing run
type BatchResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// ReinvestResult summarizes one ProcessPendingReinvestments run
type ReinvestResult struct {
	Processed       int      `json:"processed"`
	Failed          int      `json:"failed"`
	TotalReinvested float64  `json:"totalReinvested"`
	Errors          []string `json:"errors,omitempty"`
}

// PlanStats is the read-only performance projection for an autoinvest
// plan. All values are sanitized analytics, never ledger figures.
type PlanStats struct {
	HasActivePlan bool            `json:"hasActivePlan"`
	Status        PlanStatus      `json:"status"`
	Theme         InvestmentTheme `json:"theme"`
	MonthlyAmount float64         `json:"monthlyAmount"`
	Currency      string          `json:"currency"`

	TotalDeposited        float64 `json:"totalDeposited"`
	TotalInvested         float64 `json:"totalInvested"`
	TotalReturns          float64 `json:"totalReturns"`
	CurrentPortfolioValue float64 `json:"currentPortfolioValue"`

	MonthsActive          int     `json:"monthsActive"`
	AverageMonthlyReturn  float64 `json:"averageMonthlyReturn"`
	ProjectedAnnualReturn float64 `json:"projectedAnnualReturn"`
	ReturnOnInvestment    float64 `json:"returnOnInvestment"`
	AnnualizedReturn      float64 `json:"annualizedReturn"`
	DepositEfficiency     float64 `json:"depositEfficiency"`

	ProjectedValueIn1Year float64 `json:"projectedValueIn1Year"`

	NextDepositDate      *time.Time `json:"nextDepositDate"`
	DaysUntilNextDeposit int        `json:"daysUntilNextDeposit"`
	LastDepositDate      *time.Time `json:"lastDepositDate"`

	PlanCreatedDate   time.Time `json:"planCreatedDate"`
	TotalTransactions int       `json:"totalTransactions"`
	InvestmentCount   int       `json:"investmentCount"`
}

// RentalStats aggregates a user's rental income position
type RentalStats struct {
	TotalRentalIncome   float64    `json:"totalRentalIncome"`
	TotalReinvested     float64    `json:"totalReinvested"`
	AvailableToReinvest float64    `json:"availableToReinvest"`
	PayoutCount         int        `json:"payoutCount"`
	LastPayoutDate      *time.Time `json:"lastPayoutDate"`
}
