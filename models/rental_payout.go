package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus represents the reinvestment state of a rental payout
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusReinvested PayoutStatus = "reinvested"
	// PayoutStatusPartiallyReinvested marks payouts whose computed share
	// was below the plan's minimum and is parked in the plan's pending
	// amount. They stay eligible (is_reinvested=false) for the next run.
	PayoutStatusPartiallyReinvested PayoutStatus = "partially_reinvested"
)

// RentalPayout is a unit of rental income attributable to a user's
// investment in a project. A payout is reinvested at most once.
type RentalPayout struct {
	ID                    int64           `db:"id" json:"id"`
	UserID                int64           `db:"user_id" json:"userId"`
	ProjectID             int64           `db:"project_id" json:"projectId"`
	Amount                decimal.Decimal `db:"amount" json:"amount"`
	Currency              string          `db:"currency" json:"currency"`
	PayoutDate            time.Time       `db:"payout_date" json:"payoutDate"`
	IsReinvested          bool            `db:"is_reinvested" json:"isReinvested"`
	ReinvestedAmount      decimal.Decimal `db:"reinvested_amount" json:"reinvestedAmount"`
	ReinvestTransactionID *int64          `db:"reinvest_transaction_id" json:"reinvestTransactionId,omitempty"`
	PlanID                *int64          `db:"plan_id" json:"planId,omitempty"`
	Status                PayoutStatus    `db:"status" json:"status"`
	Notes                 *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt             time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updatedAt"`
}
