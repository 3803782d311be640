package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's cash and rewards balances. One wallet per
// user. Balances never go negative; every mutation happens inside a
// storage transaction together with its ledger record.
type Wallet struct {
	ID                int64           `db:"id" json:"id"`
	UserID            int64           `db:"user_id" json:"userId"`
	Currency          string          `db:"currency" json:"currency"`
	CashBalance       decimal.Decimal `db:"cash_balance" json:"cashBalance"`
	RewardsBalance    decimal.Decimal `db:"rewards_balance" json:"rewardsBalance"`
	TotalBalance      decimal.Decimal `db:"total_balance" json:"totalBalance"`
	LastTransactionAt *time.Time      `db:"last_transaction_at" json:"lastTransactionAt,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// BalanceType selects which wallet balance a transaction touches
type BalanceType string

const (
	BalanceTypeCash    BalanceType = "cash"
	BalanceTypeRewards BalanceType = "rewards"
)
