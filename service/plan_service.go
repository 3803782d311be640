package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"brickvest/config"
	"brickvest/events"
	"brickvest/models"
)

// CreatePlanInput carries the fields accepted when creating a plan.
// Kind-specific fields are pointers so omitted values can fall back to
// configured defaults.
type CreatePlanInput struct {
	Kind models.PlanKind

	// autoinvest rule
	MonthlyAmount *decimal.Decimal
	DepositDay    *int

	// autoreinvest rule
	ReinvestPercentage    *decimal.Decimal
	MinimumReinvestAmount *decimal.Decimal

	Theme                 models.InvestmentTheme
	RiskLevel             string
	PreferredRegions      []string
	ExcludedPropertyTypes []string
	Notes                 *string
}

// UpdatePlanInput carries a partial rule update. Nil fields are left
// unchanged.
type UpdatePlanInput struct {
	MonthlyAmount         *decimal.Decimal
	DepositDay            *int
	ReinvestPercentage    *decimal.Decimal
	MinimumReinvestAmount *decimal.Decimal

	Theme                 *models.InvestmentTheme
	RiskLevel             *string
	PreferredRegions      []string
	ExcludedPropertyTypes []string
	Notes                 *string
}

type planService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewPlanService creates a new plan service
func NewPlanService(uowFactory UnitOfWorkFactory) PlanService {
	return &planService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

var validThemes = map[models.InvestmentTheme]bool{
	models.ThemeGrowth:   true,
	models.ThemeIncome:   true,
	models.ThemeBalanced: true,
	models.ThemeIndex:    true,
}

// Create creates a plan after validation and eligibility checks
func (s *planService) Create(ctx context.Context, userID int64, input CreatePlanInput) (*models.Plan, error) {
	cfg := config.Get()

	plan := &models.Plan{
		UserID:                userID,
		Kind:                  input.Kind,
		Status:                models.PlanStatusActive,
		Currency:              cfg.DefaultCurrency,
		Theme:                 models.ThemeBalanced,
		RiskLevel:             cfg.DefaultRiskLevel,
		PreferredRegions:      input.PreferredRegions,
		ExcludedPropertyTypes: input.ExcludedPropertyTypes,
		Notes:                 input.Notes,
	}
	if input.Theme != "" {
		if !validThemes[input.Theme] {
			return nil, NewValidationError("unknown investment theme %q", input.Theme)
		}
		plan.Theme = input.Theme
	}
	if input.RiskLevel != "" {
		plan.RiskLevel = input.RiskLevel
	}

	switch input.Kind {
	case models.PlanKindAutoInvest:
		if input.MonthlyAmount == nil {
			return nil, NewValidationError("monthlyAmount is required")
		}
		if input.DepositDay == nil {
			return nil, NewValidationError("depositDay is required")
		}
		if err := validateAutoInvestRule(*input.MonthlyAmount, *input.DepositDay); err != nil {
			return nil, err
		}
		plan.AutoInvest = &models.AutoInvestRule{
			MonthlyAmount: *input.MonthlyAmount,
			DepositDay:    *input.DepositDay,
		}
		next := NextDepositDate(*input.DepositDay, s.now())
		plan.NextRunDate = &next

	case models.PlanKindAutoReinvest:
		rule := &models.AutoReinvestRule{
			ReinvestPercentage:    cfg.DefaultReinvestPct,
			MinimumReinvestAmount: cfg.DefaultMinReinvest,
		}
		if input.ReinvestPercentage != nil {
			rule.ReinvestPercentage = *input.ReinvestPercentage
		}
		if input.MinimumReinvestAmount != nil {
			rule.MinimumReinvestAmount = *input.MinimumReinvestAmount
		}
		if err := validateAutoReinvestRule(rule.ReinvestPercentage, rule.MinimumReinvestAmount); err != nil {
			return nil, err
		}
		plan.AutoReinvest = rule

	default:
		return nil, NewValidationError("unknown plan kind %q", input.Kind)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError("user %d not found", userID)
	}

	// Eligibility is checked at creation time only. A later drop in
	// lifetime investment total does not retire an existing plan.
	if input.Kind == models.PlanKindAutoReinvest {
		if user.InvestmentTotal.LessThan(cfg.ReinvestEligibility) {
			return nil, NewEligibilityError(
				"a lifetime investment total of at least %s %s is required for auto-reinvest, current total is %s",
				cfg.ReinvestEligibility.StringFixed(0), cfg.DefaultCurrency, user.InvestmentTotal.StringFixed(2))
		}
	}

	existing, err := uow.PlanRepository().GetLiveByUserAndKind(ctx, userID, input.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing plan: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("user already has a %s %s plan", existing.Status, input.Kind)
	}

	if err := uow.PlanRepository().Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	// Make sure the wallet exists so scheduled execution never has to
	// create one mid-run
	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		if _, err := uow.WalletRepository().Create(ctx, userID, cfg.DefaultCurrency); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	}

	uow.EventBus().Publish(events.PlanCreatedEvent{
		PlanID: plan.ID,
		UserID: userID,
		Kind:   input.Kind,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

// Get returns the user's most recent plan of the kind, or nil
func (s *planService) Get(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetLatestByUserAndKind(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return plan, nil
}

// Update applies a partial rule update to the user's live plan
func (s *planService) Update(ctx context.Context, userID int64, kind models.PlanKind, input UpdatePlanInput) (*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetLiveByUserAndKind(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, NewNotFoundError("no %s plan found", kind)
	}

	switch kind {
	case models.PlanKindAutoInvest:
		if input.ReinvestPercentage != nil || input.MinimumReinvestAmount != nil {
			return nil, NewValidationError("reinvest fields do not apply to an autoinvest plan")
		}
		rule := *plan.AutoInvest
		if input.MonthlyAmount != nil {
			rule.MonthlyAmount = *input.MonthlyAmount
		}
		depositDayChanged := false
		if input.DepositDay != nil && *input.DepositDay != rule.DepositDay {
			rule.DepositDay = *input.DepositDay
			depositDayChanged = true
		}
		if err := validateAutoInvestRule(rule.MonthlyAmount, rule.DepositDay); err != nil {
			return nil, err
		}
		plan.AutoInvest = &rule
		// A changed deposit day reschedules the next run; a paused plan
		// keeps its cleared run date until resumed
		if depositDayChanged && plan.Status == models.PlanStatusActive {
			next := NextDepositDate(rule.DepositDay, s.now())
			plan.NextRunDate = &next
		}

	case models.PlanKindAutoReinvest:
		if input.MonthlyAmount != nil || input.DepositDay != nil {
			return nil, NewValidationError("deposit fields do not apply to an autoreinvest plan")
		}
		rule := *plan.AutoReinvest
		if input.ReinvestPercentage != nil {
			rule.ReinvestPercentage = *input.ReinvestPercentage
		}
		if input.MinimumReinvestAmount != nil {
			rule.MinimumReinvestAmount = *input.MinimumReinvestAmount
		}
		if err := validateAutoReinvestRule(rule.ReinvestPercentage, rule.MinimumReinvestAmount); err != nil {
			return nil, err
		}
		plan.AutoReinvest = &rule
	}

	if input.Theme != nil {
		if !validThemes[*input.Theme] {
			return nil, NewValidationError("unknown investment theme %q", *input.Theme)
		}
		plan.Theme = *input.Theme
	}
	if input.RiskLevel != nil {
		plan.RiskLevel = *input.RiskLevel
	}
	if input.PreferredRegions != nil {
		plan.PreferredRegions = input.PreferredRegions
	}
	if input.ExcludedPropertyTypes != nil {
		plan.ExcludedPropertyTypes = input.ExcludedPropertyTypes
	}
	if input.Notes != nil {
		plan.Notes = input.Notes
	}

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

// Pause suspends an active plan and clears its next run date
func (s *planService) Pause(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	return s.transition(ctx, userID, kind, models.PlanStatusActive, func(plan *models.Plan) {
		plan.Status = models.PlanStatusPaused
		plan.NextRunDate = nil
	})
}

// Resume reactivates a paused plan and recomputes its next run date
func (s *planService) Resume(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	return s.transition(ctx, userID, kind, models.PlanStatusPaused, func(plan *models.Plan) {
		plan.Status = models.PlanStatusActive
		if plan.Kind == models.PlanKindAutoInvest {
			next := NextDepositDate(plan.AutoInvest.DepositDay, s.now())
			plan.NextRunDate = &next
		}
	})
}

// Cancel terminally cancels the user's live plan
func (s *planService) Cancel(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetLiveByUserAndKind(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, NewNotFoundError("no %s plan found", kind)
	}

	plan.Status = models.PlanStatusCancelled
	plan.NextRunDate = nil

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to cancel plan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

// transition applies a status change that is only legal from one
// status
func (s *planService) transition(ctx context.Context, userID int64, kind models.PlanKind, from models.PlanStatus, apply func(*models.Plan)) (*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetLiveByUserAndKind(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, NewNotFoundError("no %s plan found", kind)
	}
	if plan.Status != from {
		return nil, NewInvalidStateError("plan is %s", plan.Status)
	}

	apply(plan)

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

func validateAutoInvestRule(monthlyAmount decimal.Decimal, depositDay int) error {
	cfg := config.Get()
	if monthlyAmount.LessThan(cfg.MinMonthlyAmount) {
		return NewValidationError("monthlyAmount must be at least %s", cfg.MinMonthlyAmount.StringFixed(0))
	}
	if depositDay < cfg.DepositDayMin || depositDay > cfg.DepositDayMax {
		return NewValidationError("depositDay must be between %d and %d", cfg.DepositDayMin, cfg.DepositDayMax)
	}
	return nil
}

func validateAutoReinvestRule(reinvestPct, minReinvest decimal.Decimal) error {
	cfg := config.Get()
	if reinvestPct.LessThan(decimal.Zero) || reinvestPct.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("reinvestPercentage must be between 0 and 100")
	}
	if minReinvest.LessThan(cfg.MinReinvestFloor) {
		return NewValidationError("minimumReinvestAmount must be at least %s", cfg.MinReinvestFloor.StringFixed(0))
	}
	return nil
}
