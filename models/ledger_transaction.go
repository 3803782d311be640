package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of balance-affecting event
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeRentPayout       TransactionType = "rent_payout"
	TransactionTypeInvestment       TransactionType = "investment"
	TransactionTypeReinvestment     TransactionType = "reinvestment"
	TransactionTypeAutoInvestFailed TransactionType = "autoinvest_failed"
)

// TransactionStatus represents the settlement state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// LedgerTransaction is an immutable audit record of a balance-affecting
// event. Rows are append-only: once written they are never updated;
// corrections are made with compensating transactions.
type LedgerTransaction struct {
	ID          int64             `db:"id" json:"id"`
	Reference   string            `db:"reference" json:"reference"`
	UserID      int64             `db:"user_id" json:"userId"`
	PlanID      *int64            `db:"plan_id" json:"planId,omitempty"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"`
	Currency    string            `db:"currency" json:"currency"`
	Status      TransactionStatus `db:"status" json:"status"`
	Description string            `db:"description" json:"description"`
	BalanceType BalanceType       `db:"balance_type" json:"balanceType"`
	Metadata    map[string]any    `db:"metadata" json:"metadata,omitempty"`
	ProcessedAt *time.Time        `db:"processed_at" json:"processedAt,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
}
