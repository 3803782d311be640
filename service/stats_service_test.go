package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"brickvest/config"
	"brickvest/models"
)

var statsNow = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

func newTestStatsService(factory UnitOfWorkFactory) *statsService {
	config.SetTestConfig(config.NewTestConfig())
	s := NewStatsService(factory).(*statsService)
	s.now = func() time.Time { return statsNow }
	return s
}

func TestStatsService_PlanStats_NoPlan(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestStatsService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLatestByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(nil, nil)

	stats, err := service.PlanStats(ctx, 10)

	assert.NoError(t, err)
	assert.False(t, stats.HasActivePlan)
	assert.Zero(t, stats.TotalInvested)
}

func TestStatsService_PlanStats_CompoundsPerTransaction(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)
	mockLedgerRepo := new(MockLedgerTransactionRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, mockLedgerRepo, nil)

	service := newTestStatsService(mockFactory)

	created := statsNow.Add(-2 * averageMonth)
	next := statsNow.AddDate(0, 0, 14)
	plan := &models.Plan{
		ID:             7,
		UserID:         10,
		Kind:           models.PlanKindAutoInvest,
		Status:         models.PlanStatusActive,
		Currency:       "TND",
		Theme:          models.ThemeBalanced,
		AutoInvest:     &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(150), DepositDay: 15},
		TotalDeposited: decimal.NewFromInt(300),
		TotalInvested:  decimal.NewFromInt(300),
		NextRunDate:    &next,
		CreatedAt:      created,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLatestByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(plan, nil)
	mockLedgerRepo.On("ListCompletedByPlan", ctx, int64(7)).Return([]*models.LedgerTransaction{
		{
			ID:        1,
			Type:      models.TransactionTypeInvestment,
			Amount:    decimal.NewFromInt(150),
			CreatedAt: statsNow.Add(-2 * averageMonth),
		},
		{
			ID:        2,
			Type:      models.TransactionTypeInvestment,
			Amount:    decimal.NewFromInt(150),
			CreatedAt: statsNow.Add(-1 * averageMonth),
		},
	}, nil)

	stats, err := service.PlanStats(ctx, 10)

	assert.NoError(t, err)
	assert.True(t, stats.HasActivePlan)
	assert.Equal(t, 2, stats.MonthsActive)
	assert.Equal(t, 2, stats.InvestmentCount)

	// Balanced theme assumes 6.5% annually, compounded monthly per
	// transaction from its own date
	monthlyRate := 0.065 / 12
	expectedValue := 150*math.Pow(1+monthlyRate, 2) + 150*math.Pow(1+monthlyRate, 1)
	assert.InDelta(t, expectedValue, stats.CurrentPortfolioValue, 0.01)
	assert.InDelta(t, expectedValue-300, stats.TotalReturns, 0.01)
	assert.InDelta(t, (expectedValue-300)/300*100, stats.ReturnOnInvestment, 0.01)
	assert.InDelta(t, 100, stats.DepositEfficiency, 0.001)
	assert.Equal(t, 14, stats.DaysUntilNextDeposit)
	assert.Greater(t, stats.ProjectedValueIn1Year, expectedValue)
}

func TestStatsService_PlanStats_EstimatesWithoutHistory(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)
	mockLedgerRepo := new(MockLedgerTransactionRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, mockLedgerRepo, nil)

	service := newTestStatsService(mockFactory)

	// Counters carried over without per-transaction rows: six months of
	// activity estimated as invested for half the plan's age
	plan := &models.Plan{
		ID:             7,
		UserID:         10,
		Kind:           models.PlanKindAutoInvest,
		Status:         models.PlanStatusActive,
		Currency:       "TND",
		Theme:          models.ThemeBalanced,
		AutoInvest:     &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(200), DepositDay: 15},
		TotalDeposited: decimal.NewFromInt(1200),
		TotalInvested:  decimal.NewFromInt(1200),
		CreatedAt:      statsNow.Add(-6 * averageMonth),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLatestByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(plan, nil)
	mockLedgerRepo.On("ListCompletedByPlan", ctx, int64(7)).Return([]*models.LedgerTransaction{}, nil)

	stats, err := service.PlanStats(ctx, 10)

	assert.NoError(t, err)
	monthlyRate := 0.065 / 12
	expectedValue := 1200 * math.Pow(1+monthlyRate, 3)
	assert.InDelta(t, expectedValue, stats.CurrentPortfolioValue, 0.01)
	assert.InDelta(t, expectedValue-1200, stats.TotalReturns, 0.01)
	assert.Greater(t, stats.TotalReturns, 0.0)
	assert.Zero(t, stats.InvestmentCount)
}

func TestStatsService_PlanStats_ZeroInvestedStaysFinite(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)
	mockLedgerRepo := new(MockLedgerTransactionRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, mockLedgerRepo, nil)

	service := newTestStatsService(mockFactory)

	plan := &models.Plan{
		ID:         7,
		UserID:     10,
		Kind:       models.PlanKindAutoInvest,
		Status:     models.PlanStatusActive,
		Theme:      models.ThemeIndex,
		AutoInvest: &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(150), DepositDay: 15},
		CreatedAt:  statsNow.Add(-time.Hour),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLatestByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(plan, nil)
	mockLedgerRepo.On("ListCompletedByPlan", ctx, int64(7)).Return([]*models.LedgerTransaction{}, nil)

	stats, err := service.PlanStats(ctx, 10)

	assert.NoError(t, err)
	assert.Equal(t, 1, stats.MonthsActive)
	assert.Zero(t, stats.ReturnOnInvestment)
	assert.Zero(t, stats.AnnualizedReturn)
	assert.False(t, math.IsNaN(stats.ProjectedValueIn1Year))
	assert.False(t, math.IsInf(stats.ProjectedValueIn1Year, 0))
}

func TestStatsService_RentalStats(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPayoutRepo := new(MockRentalPayoutRepository)

	mockUoW.SetRepositories(nil, nil, nil, nil, mockPayoutRepo)

	service := newTestStatsService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	expected := &models.RentalStats{
		TotalRentalIncome:   450,
		TotalReinvested:     200,
		AvailableToReinvest: 250,
		PayoutCount:         3,
	}
	mockPayoutRepo.On("Stats", ctx, int64(10)).Return(expected, nil)

	stats, err := service.RentalStats(ctx, 10)

	assert.NoError(t, err)
	assert.Equal(t, expected, stats)
}

func TestSafeNumber(t *testing.T) {
	assert.Equal(t, 0.0, safeNumber(math.NaN()))
	assert.Equal(t, 0.0, safeNumber(math.Inf(1)))
	assert.Equal(t, 0.0, safeNumber(math.Inf(-1)))
	assert.Equal(t, 42.5, safeNumber(42.5))
}
