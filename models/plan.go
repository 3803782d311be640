package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanKind discriminates the two recurring plan variants
type PlanKind string

const (
	PlanKindAutoInvest   PlanKind = "autoinvest"
	PlanKindAutoReinvest PlanKind = "autoreinvest"
)

// PlanStatus represents the lifecycle state of a plan.
// cancelled is terminal; active and paused are interchangeable.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusPaused    PlanStatus = "paused"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// InvestmentTheme selects the assumed-return profile used by the
// statistics projector
type InvestmentTheme string

const (
	ThemeGrowth   InvestmentTheme = "growth"
	ThemeIncome   InvestmentTheme = "income"
	ThemeBalanced InvestmentTheme = "balanced"
	ThemeIndex    InvestmentTheme = "index"
)

// AutoInvestRule is the amount rule carried by autoinvest plans
type AutoInvestRule struct {
	MonthlyAmount decimal.Decimal `db:"monthly_amount" json:"monthlyAmount"`
	DepositDay    int             `db:"deposit_day" json:"depositDay"`
}

// AutoReinvestRule is the amount rule carried by autoreinvest plans
type AutoReinvestRule struct {
	ReinvestPercentage    decimal.Decimal `db:"reinvest_percentage" json:"reinvestPercentage"`
	MinimumReinvestAmount decimal.Decimal `db:"minimum_reinvest_amount" json:"minimumReinvestAmount"`
}

// Plan represents a user's recurring investment plan, a tagged variant
// over the two kinds. Exactly one of AutoInvest/AutoReinvest is
// non-nil, matching Kind.
type Plan struct {
	ID     int64      `db:"id" json:"id"`
	UserID int64      `db:"user_id" json:"userId"`
	Kind   PlanKind   `db:"kind" json:"kind"`
	Status PlanStatus `db:"status" json:"status"`

	AutoInvest   *AutoInvestRule   `db:"-" json:"autoInvest,omitempty"`
	AutoReinvest *AutoReinvestRule `db:"-" json:"autoReinvest,omitempty"`

	Currency  string          `db:"currency" json:"currency"`
	Theme     InvestmentTheme `db:"theme" json:"theme"`
	RiskLevel string          `db:"risk_level" json:"riskLevel"`

	// Preference metadata, opaque to the processor
	PreferredRegions      []string `db:"preferred_regions" json:"preferredRegions"`
	ExcludedPropertyTypes []string `db:"excluded_property_types" json:"excludedPropertyTypes"`
	Notes                 *string  `db:"notes" json:"notes,omitempty"`

	// NextRunDate is null whenever the plan is not active, and is only
	// maintained for the autoinvest kind (reinvestment is event-driven)
	NextRunDate *time.Time `db:"next_run_date" json:"nextRunDate"`
	LastRunDate *time.Time `db:"last_run_date" json:"lastRunDate"`

	TotalDeposited        decimal.Decimal `db:"total_deposited" json:"totalDeposited"`
	TotalInvested         decimal.Decimal `db:"total_invested" json:"totalInvested"`
	TotalRentalIncome     decimal.Decimal `db:"total_rental_income" json:"totalRentalIncome"`
	TotalReinvested       decimal.Decimal `db:"total_reinvested" json:"totalReinvested"`
	PendingReinvestAmount decimal.Decimal `db:"pending_reinvest_amount" json:"pendingReinvestAmount"`

	// Owning user reference, populated by ListDue for the executor
	UserEmail string `db:"-" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsTerminal reports whether no further transitions are possible
func (s PlanStatus) IsTerminal() bool {
	return s == PlanStatusCancelled
}
