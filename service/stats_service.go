package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"brickvest/config"
	"brickvest/models"
)

// averageMonth is the fixed month length used for elapsed-time math
const averageMonth = time.Duration(30.44 * 24 * float64(time.Hour))

// statsService implements the StatsService interface. Everything here
// is a cosmetic projection over the ledger; nothing feeds back into
// balances.
type statsService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// PlanStats projects performance figures for the user's autoinvest plan
func (s *statsService) PlanStats(ctx context.Context, userID int64) (*models.PlanStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetLatestByUserAndKind(ctx, userID, models.PlanKindAutoInvest)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return &models.PlanStats{HasActivePlan: false}, nil
	}

	txns, err := uow.LedgerTransactionRepository().ListCompletedByPlan(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan transactions: %w", err)
	}

	now := s.now()
	annualRate := config.Get().ThemeAnnualReturns[string(plan.Theme)]
	monthlyRate := annualRate / 12

	monthsActive := monthsBetween(plan.CreatedAt, now)

	totalDeposited, _ := plan.TotalDeposited.Float64()
	totalInvested, _ := plan.TotalInvested.Float64()
	monthlyAmount, _ := plan.AutoInvest.MonthlyAmount.Float64()

	// Compound each completed investment individually from its own
	// date, so early deposits carry more assumed growth
	var currentValue float64
	investmentCount := 0
	for _, txn := range txns {
		if txn.Type != models.TransactionTypeInvestment {
			continue
		}
		investmentCount++
		amount, _ := txn.Amount.Float64()
		monthsHeld := float64(now.Sub(txn.CreatedAt)) / float64(averageMonth)
		if monthsHeld < 0 {
			monthsHeld = 0
		}
		currentValue += amount * math.Pow(1+monthlyRate, monthsHeld)
	}

	// No per-transaction history yet (counters imported from elsewhere):
	// estimate growth over half the plan's age
	if investmentCount == 0 && totalInvested > 0 {
		currentValue = totalInvested * math.Pow(1+monthlyRate, float64(monthsActive)/2)
	}

	totalReturns := currentValue - totalInvested

	stats := &models.PlanStats{
		HasActivePlan: plan.Status == models.PlanStatusActive,
		Status:        plan.Status,
		Theme:         plan.Theme,
		MonthlyAmount: monthlyAmount,
		Currency:      plan.Currency,

		TotalDeposited:        safeNumber(totalDeposited),
		TotalInvested:         safeNumber(totalInvested),
		TotalReturns:          safeNumber(totalReturns),
		CurrentPortfolioValue: safeNumber(currentValue),

		MonthsActive:          monthsActive,
		AverageMonthlyReturn:  safeNumber(totalReturns / float64(monthsActive)),
		ProjectedAnnualReturn: safeNumber(totalReturns / float64(monthsActive) * 12),

		PlanCreatedDate:   plan.CreatedAt,
		TotalTransactions: len(txns),
		InvestmentCount:   investmentCount,

		NextDepositDate: plan.NextRunDate,
		LastDepositDate: plan.LastRunDate,
	}

	if totalInvested > 0 {
		stats.ReturnOnInvestment = safeNumber(totalReturns / totalInvested * 100)
		stats.AnnualizedReturn = safeNumber((math.Pow(currentValue/totalInvested, 12/float64(monthsActive)) - 1) * 100)
	}
	if totalDeposited > 0 {
		stats.DepositEfficiency = safeNumber(totalInvested / totalDeposited * 100)
	}

	// Standard future value of an annuity over the next twelve months,
	// on top of compounding the current holdings
	fv := currentValue * math.Pow(1+monthlyRate, 12)
	if monthlyRate > 0 && stats.HasActivePlan {
		fv += monthlyAmount * (math.Pow(1+monthlyRate, 12) - 1) / monthlyRate
	} else if stats.HasActivePlan {
		fv += monthlyAmount * 12
	}
	stats.ProjectedValueIn1Year = safeNumber(fv)

	if plan.NextRunDate != nil {
		days := int(math.Ceil(plan.NextRunDate.Sub(now).Hours() / 24))
		if days < 0 {
			days = 0
		}
		stats.DaysUntilNextDeposit = days
	}

	return stats, nil
}

// RentalStats aggregates the user's rental income position
func (s *statsService) RentalStats(ctx context.Context, userID int64) (*models.RentalStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stats, err := uow.RentalPayoutRepository().Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rental stats: %w", err)
	}

	return stats, nil
}

// monthsBetween counts elapsed average months, never less than one
func monthsBetween(from, to time.Time) int {
	elapsed := to.Sub(from)
	if elapsed <= 0 {
		return 1
	}
	months := int(math.Ceil(float64(elapsed) / float64(averageMonth)))
	if months < 1 {
		return 1
	}
	return months
}

// safeNumber clamps non-finite intermediate results to zero. These are
// analytics figures; propagating NaN into a JSON response helps nobody.
func safeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
