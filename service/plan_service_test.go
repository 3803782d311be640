package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"brickvest/config"
	"brickvest/models"
)

var planNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestPlanService(factory UnitOfWorkFactory) *planService {
	config.SetTestConfig(config.NewTestConfig())
	s := NewPlanService(factory).(*planService)
	s.now = func() time.Time { return planNow }
	return s
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func TestPlanService_Create_AutoInvest(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockPlanRepo := new(MockPlanRepository)
	mockWalletRepo := new(MockWalletRepository)

	mockUoW.SetRepositories(mockUserRepo, mockWalletRepo, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, int64(10)).Return(&models.User{ID: 10, Email: "a@b.tn"}, nil)
	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(nil, nil)
	mockPlanRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Plan) bool {
		return p.UserID == 10 &&
			p.Kind == models.PlanKindAutoInvest &&
			p.Status == models.PlanStatusActive &&
			p.AutoInvest.MonthlyAmount.Equal(decimal.NewFromInt(250)) &&
			p.AutoInvest.DepositDay == 5 &&
			// The 5th of June already elapsed, so the first run is July
			p.NextRunDate.Equal(time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC))
	})).Return(nil)
	mockWalletRepo.On("GetByUserID", ctx, int64(10)).Return(nil, nil)
	mockWalletRepo.On("Create", ctx, int64(10), "TND").Return(&models.Wallet{UserID: 10}, nil)

	plan, err := service.Create(ctx, 10, CreatePlanInput{
		Kind:          models.PlanKindAutoInvest,
		MonthlyAmount: decPtr(250),
		DepositDay:    intPtr(5),
		Theme:         models.ThemeGrowth,
	})

	assert.NoError(t, err)
	assert.NotNil(t, plan)
	assert.Equal(t, models.ThemeGrowth, plan.Theme)
	mockPlanRepo.AssertExpectations(t)
	mockWalletRepo.AssertExpectations(t)
}

func TestPlanService_Create_AutoInvest_BelowMinimum(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := newTestPlanService(mockFactory)

	plan, err := service.Create(ctx, 10, CreatePlanInput{
		Kind:          models.PlanKindAutoInvest,
		MonthlyAmount: decPtr(50),
		DepositDay:    intPtr(5),
	})

	assert.Nil(t, plan)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestPlanService_Create_AutoInvest_BadDepositDay(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := newTestPlanService(mockFactory)

	_, err := service.Create(ctx, 10, CreatePlanInput{
		Kind:          models.PlanKindAutoInvest,
		MonthlyAmount: decPtr(250),
		DepositDay:    intPtr(29),
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestPlanService_Create_AutoReinvest_Ineligible(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, int64(10)).Return(&models.User{
		ID:              10,
		InvestmentTotal: decimal.NewFromInt(500),
	}, nil)

	plan, err := service.Create(ctx, 10, CreatePlanInput{
		Kind: models.PlanKindAutoReinvest,
	})

	assert.Nil(t, plan)
	var eligibilityErr *EligibilityError
	assert.ErrorAs(t, err, &eligibilityErr)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPlanService_Create_AutoReinvest_Defaults(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockPlanRepo := new(MockPlanRepository)
	mockWalletRepo := new(MockWalletRepository)

	mockUoW.SetRepositories(mockUserRepo, mockWalletRepo, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, int64(10)).Return(&models.User{
		ID:              10,
		InvestmentTotal: decimal.NewFromInt(5000),
	}, nil)
	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoReinvest).Return(nil, nil)
	mockPlanRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Plan) bool {
		return p.Kind == models.PlanKindAutoReinvest &&
			p.AutoReinvest.ReinvestPercentage.Equal(decimal.NewFromInt(100)) &&
			p.AutoReinvest.MinimumReinvestAmount.Equal(decimal.NewFromInt(100)) &&
			// Reinvestment is event-driven, no scheduled run date
			p.NextRunDate == nil
	})).Return(nil)
	mockWalletRepo.On("GetByUserID", ctx, int64(10)).Return(&models.Wallet{UserID: 10}, nil)

	plan, err := service.Create(ctx, 10, CreatePlanInput{
		Kind: models.PlanKindAutoReinvest,
	})

	assert.NoError(t, err)
	assert.NotNil(t, plan)
	mockPlanRepo.AssertExpectations(t)
	mockWalletRepo.AssertNotCalled(t, "Create")
}

func TestPlanService_Create_DuplicateKind(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByID", ctx, int64(10)).Return(&models.User{ID: 10}, nil)
	// A paused plan still blocks creation; only cancelled frees the slot
	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(&models.Plan{
		ID:     7,
		Status: models.PlanStatusPaused,
		Kind:   models.PlanKindAutoInvest,
	}, nil)

	plan, err := service.Create(ctx, 10, CreatePlanInput{
		Kind:          models.PlanKindAutoInvest,
		MonthlyAmount: decPtr(250),
		DepositDay:    intPtr(5),
	})

	assert.Nil(t, plan)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestPlanService_Pause_ActivePlan(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	next := time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC)
	active := &models.Plan{
		ID:          7,
		UserID:      10,
		Kind:        models.PlanKindAutoInvest,
		Status:      models.PlanStatusActive,
		AutoInvest:  &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(250), DepositDay: 5},
		NextRunDate: &next,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(active, nil)
	mockPlanRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
		return p.Status == models.PlanStatusPaused && p.NextRunDate == nil
	})).Return(nil)

	plan, err := service.Pause(ctx, 10, models.PlanKindAutoInvest)

	assert.NoError(t, err)
	assert.Equal(t, models.PlanStatusPaused, plan.Status)
	assert.Nil(t, plan.NextRunDate)
}

func TestPlanService_Pause_AlreadyPaused(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(&models.Plan{
		ID:         7,
		UserID:     10,
		Kind:       models.PlanKindAutoInvest,
		Status:     models.PlanStatusPaused,
		AutoInvest: &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(250), DepositDay: 5},
	}, nil)

	plan, err := service.Pause(ctx, 10, models.PlanKindAutoInvest)

	assert.Nil(t, plan)
	var stateErr *InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
	mockPlanRepo.AssertNotCalled(t, "Update")
}

func TestPlanService_Resume_RecomputesNextRunDate(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(&models.Plan{
		ID:         7,
		UserID:     10,
		Kind:       models.PlanKindAutoInvest,
		Status:     models.PlanStatusPaused,
		AutoInvest: &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(250), DepositDay: 15},
	}, nil)
	mockPlanRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
		return p.Status == models.PlanStatusActive &&
			p.NextRunDate != nil &&
			p.NextRunDate.Equal(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	plan, err := service.Resume(ctx, 10, models.PlanKindAutoInvest)

	assert.NoError(t, err)
	assert.Equal(t, models.PlanStatusActive, plan.Status)
}

func TestPlanService_Update_DepositDayReschedules(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	next := time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC)
	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(&models.Plan{
		ID:          7,
		UserID:      10,
		Kind:        models.PlanKindAutoInvest,
		Status:      models.PlanStatusActive,
		AutoInvest:  &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(250), DepositDay: 5},
		NextRunDate: &next,
	}, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
		return p.AutoInvest.DepositDay == 20 &&
			p.NextRunDate.Equal(time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	plan, err := service.Update(ctx, 10, models.PlanKindAutoInvest, UpdatePlanInput{
		DepositDay: intPtr(20),
	})

	assert.NoError(t, err)
	assert.Equal(t, 20, plan.AutoInvest.DepositDay)
}

func TestPlanService_Update_KindMismatchedFields(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoInvest).Return(&models.Plan{
		ID:         7,
		UserID:     10,
		Kind:       models.PlanKindAutoInvest,
		Status:     models.PlanStatusActive,
		AutoInvest: &models.AutoInvestRule{MonthlyAmount: decimal.NewFromInt(250), DepositDay: 5},
	}, nil)

	_, err := service.Update(ctx, 10, models.PlanKindAutoInvest, UpdatePlanInput{
		ReinvestPercentage: decPtr(50),
	})

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestPlanService_Cancel_NoPlan(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockPlanRepo := new(MockPlanRepository)

	mockUoW.SetRepositories(nil, nil, mockPlanRepo, nil, nil)

	service := newTestPlanService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockPlanRepo.On("GetLiveByUserAndKind", ctx, int64(10), models.PlanKindAutoReinvest).Return(nil, nil)

	plan, err := service.Cancel(ctx, 10, models.PlanKindAutoReinvest)

	assert.Nil(t, plan)
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}
