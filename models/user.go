package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a platform investor. Only the fields the ledger
// processor reads are modeled; profile/KYC data lives elsewhere.
type User struct {
	ID              int64           `db:"id" json:"id"`
	Email           string          `db:"email" json:"email"`
	Name            string          `db:"name" json:"name"`
	Currency        string          `db:"currency" json:"currency"`
	InvestmentTotal decimal.Decimal `db:"investment_total" json:"investmentTotal"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}
