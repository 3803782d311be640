package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"brickvest/database"
	"brickvest/models"
)

// InsertTestUser inserts a user row directly and returns its id. Users
// are managed by the wider platform, so the repositories expose no
// create path of their own.
func InsertTestUser(t *testing.T, db *database.DB, email string, investmentTotal decimal.Decimal) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (email, name, investment_total) VALUES ($1, $2, $3) RETURNING id`,
		email, "Test User", investmentTotal,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertTestProject inserts a project row and returns its id
func InsertTestProject(t *testing.T, db *database.DB, name string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO projects (name, location) VALUES ($1, $2) RETURNING id`,
		name, "Tunis",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateTestAutoInvestPlan creates an active autoinvest plan with default values
func CreateTestAutoInvestPlan(userID int64, monthlyAmount decimal.Decimal, depositDay int) *models.Plan {
	nextRun := time.Now().AddDate(0, 1, 0)
	return &models.Plan{
		UserID: userID,
		Kind:   models.PlanKindAutoInvest,
		Status: models.PlanStatusActive,
		AutoInvest: &models.AutoInvestRule{
			MonthlyAmount: monthlyAmount,
			DepositDay:    depositDay,
		},
		Currency:    "TND",
		Theme:       models.ThemeBalanced,
		RiskLevel:   "medium",
		NextRunDate: &nextRun,
	}
}

// CreateTestAutoReinvestPlan creates an active autoreinvest plan with default values
func CreateTestAutoReinvestPlan(userID int64, pct, minimum decimal.Decimal) *models.Plan {
	return &models.Plan{
		UserID: userID,
		Kind:   models.PlanKindAutoReinvest,
		Status: models.PlanStatusActive,
		AutoReinvest: &models.AutoReinvestRule{
			ReinvestPercentage:    pct,
			MinimumReinvestAmount: minimum,
		},
		Currency:  "TND",
		Theme:     models.ThemeIncome,
		RiskLevel: "medium",
	}
}

// CreateTestPayout creates a paid rental payout awaiting reinvestment
func CreateTestPayout(userID, projectID int64, amount decimal.Decimal) *models.RentalPayout {
	return &models.RentalPayout{
		UserID:     userID,
		ProjectID:  projectID,
		Amount:     amount,
		Currency:   "TND",
		PayoutDate: time.Now(),
		Status:     models.PayoutStatusPaid,
	}
}

// CreateTestTransaction creates a completed ledger transaction
func CreateTestTransaction(userID int64, planID *int64, txnType models.TransactionType, amount decimal.Decimal) *models.LedgerTransaction {
	return &models.LedgerTransaction{
		UserID:      userID,
		PlanID:      planID,
		Type:        txnType,
		Amount:      amount,
		Currency:    "TND",
		Status:      models.TransactionStatusCompleted,
		BalanceType: models.BalanceTypeCash,
	}
}
