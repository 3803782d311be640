package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"brickvest/events"
	"brickvest/models"
)

type executorService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewExecutorService creates a new executor service
func NewExecutorService(uowFactory UnitOfWorkFactory) ExecutorService {
	return &executorService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Execute runs one plan's unit of work, dispatching on kind
func (s *executorService) Execute(ctx context.Context, plan *models.Plan) error {
	switch plan.Kind {
	case models.PlanKindAutoInvest:
		return s.executeAutoInvest(ctx, plan.ID)
	case models.PlanKindAutoReinvest:
		_, err := s.executeAutoReinvest(ctx, plan.ID)
		return err
	default:
		return NewValidationError("unknown plan kind %q", plan.Kind)
	}
}

// executeAutoInvest performs one scheduled deposit. The plan is
// re-read inside the transaction, so a run that already happened (the
// next run date advanced) becomes a no-op rather than a double charge.
func (s *executorService) executeAutoInvest(ctx context.Context, planID int64) error {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return &StorageError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return &StorageError{Op: "load plan", Err: err}
	}
	if plan == nil {
		return NewNotFoundError("plan %d not found", planID)
	}
	if plan.Status != models.PlanStatusActive || plan.Kind != models.PlanKindAutoInvest {
		return nil
	}
	if plan.NextRunDate == nil || plan.NextRunDate.After(now) {
		// Already executed by a concurrent run, or not due yet
		return nil
	}

	// Lock the wallet row for the balance check + debit so a
	// concurrent execution serializes instead of double-spending
	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, plan.UserID)
	if err != nil {
		return &StorageError{Op: "lock wallet", Err: err}
	}
	if wallet == nil {
		return NewNotFoundError("wallet for user %d not found", plan.UserID)
	}

	// Re-read the plan now that the lock is held. A concurrent run that
	// committed while we waited has already advanced the next run date,
	// and acting on the pre-lock snapshot would charge the same period
	// twice.
	plan, err = uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return &StorageError{Op: "reload plan", Err: err}
	}
	if plan == nil || plan.Status != models.PlanStatusActive {
		return nil
	}
	if plan.NextRunDate == nil || plan.NextRunDate.After(now) {
		return nil
	}

	amount := plan.AutoInvest.MonthlyAmount

	if wallet.CashBalance.LessThan(amount) {
		return s.pauseOnShortfall(ctx, uow, plan, amount, wallet.CashBalance, now)
	}

	if err := uow.WalletRepository().DebitCash(ctx, plan.UserID, amount); err != nil {
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			return s.pauseOnShortfall(ctx, uow, plan, amount, insufficient.Available, now)
		}
		return &StorageError{Op: "debit wallet", Err: err}
	}

	txn := &models.LedgerTransaction{
		UserID:      plan.UserID,
		PlanID:      &plan.ID,
		Type:        models.TransactionTypeInvestment,
		Amount:      amount,
		Currency:    plan.Currency,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Scheduled monthly investment of %s %s", amount.StringFixed(2), plan.Currency),
		BalanceType: models.BalanceTypeCash,
		Metadata: map[string]any{
			"deposit_day": plan.AutoInvest.DepositDay,
			"theme":       plan.Theme,
		},
		ProcessedAt: &now,
	}
	if err := RecordLedgerEntry(ctx, uow, txn, wallet.CashBalance, wallet.CashBalance.Sub(amount)); err != nil {
		return &StorageError{Op: "record ledger entry", Err: err}
	}

	// 1:1 investment assumption, no fee or slippage modeled
	plan.TotalDeposited = plan.TotalDeposited.Add(amount)
	plan.TotalInvested = plan.TotalInvested.Add(amount)
	plan.LastRunDate = &now
	next := NextDepositDate(plan.AutoInvest.DepositDay, now)
	plan.NextRunDate = &next

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return &StorageError{Op: "update plan", Err: err}
	}

	uow.EventBus().Publish(events.DepositProcessedEvent{
		PlanID: plan.ID,
		UserID: plan.UserID,
		Amount: amount,
	})

	if err := uow.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}

	return nil
}

// pauseOnShortfall handles the expected underfunded case: pause the
// plan, keep an audit row, commit. Not an error from the batch's point
// of view.
func (s *executorService) pauseOnShortfall(ctx context.Context, uow UnitOfWork, plan *models.Plan, needed, available decimal.Decimal, now time.Time) error {
	note := fmt.Sprintf("Paused automatically on %s: insufficient funds (needed %s, available %s)",
		now.Format("2006-01-02"), needed.StringFixed(2), available.StringFixed(2))
	plan.Status = models.PlanStatusPaused
	plan.NextRunDate = nil
	plan.Notes = &note

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return &StorageError{Op: "pause plan", Err: err}
	}

	txn := &models.LedgerTransaction{
		UserID:      plan.UserID,
		PlanID:      &plan.ID,
		Type:        models.TransactionTypeAutoInvestFailed,
		Amount:      needed,
		Currency:    plan.Currency,
		Status:      models.TransactionStatusFailed,
		Description: "Scheduled investment skipped: insufficient funds",
		BalanceType: models.BalanceTypeCash,
		Metadata: map[string]any{
			"needed":    needed.String(),
			"available": available.String(),
		},
		ProcessedAt: &now,
	}
	if err := uow.LedgerTransactionRepository().Create(ctx, txn); err != nil {
		return &StorageError{Op: "record failed transaction", Err: err}
	}

	uow.EventBus().Publish(events.PlanAutoPausedEvent{
		PlanID:    plan.ID,
		UserID:    plan.UserID,
		Needed:    needed,
		Available: available,
	})

	if err := uow.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}

	log.WithFields(log.Fields{
		"planId":    plan.ID,
		"userId":    plan.UserID,
		"needed":    needed.String(),
		"available": available.String(),
	}).Warn("Auto-invest plan paused on funding shortfall")

	return nil
}

// executeAutoReinvest runs one reinvestment pass over the user's
// unreinvested payouts and returns the amount reinvested, which is
// zero when the computed share stays below the plan's minimum.
func (s *executorService) executeAutoReinvest(ctx context.Context, planID int64) (decimal.Decimal, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return decimal.Zero, &StorageError{Op: "begin", Err: err}
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "load plan", Err: err}
	}
	if plan == nil {
		return decimal.Zero, NewNotFoundError("plan %d not found", planID)
	}
	if plan.Status != models.PlanStatusActive || plan.Kind != models.PlanKindAutoReinvest {
		return decimal.Zero, nil
	}

	payouts, err := uow.RentalPayoutRepository().ListUnreinvestedByUser(ctx, plan.UserID)
	if err != nil {
		return decimal.Zero, &StorageError{Op: "list payouts", Err: err}
	}
	if len(payouts) == 0 {
		return decimal.Zero, nil
	}

	totalAvailable := decimal.Zero
	for _, payout := range payouts {
		totalAvailable = totalAvailable.Add(payout.Amount)
	}

	pct := plan.AutoReinvest.ReinvestPercentage
	reinvestAmount := totalAvailable.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)

	if reinvestAmount.LessThan(plan.AutoReinvest.MinimumReinvestAmount) {
		// Park below the threshold. The pending amount is the share of
		// the whole eligible set, not a running sum: the same payouts
		// are recomputed next run, so accumulating would double count.
		plan.PendingReinvestAmount = reinvestAmount
		if err := uow.PlanRepository().Update(ctx, plan); err != nil {
			return decimal.Zero, &StorageError{Op: "park pending amount", Err: err}
		}

		for _, payout := range payouts {
			if payout.Status == models.PayoutStatusPartiallyReinvested {
				continue
			}
			payout.Status = models.PayoutStatusPartiallyReinvested
			payout.PlanID = &plan.ID
			if err := uow.RentalPayoutRepository().Update(ctx, payout); err != nil {
				return decimal.Zero, &StorageError{Op: "park payout", Err: err}
			}
		}

		if err := uow.Commit(); err != nil {
			return decimal.Zero, &StorageError{Op: "commit", Err: err}
		}
		return decimal.Zero, nil
	}

	txn := &models.LedgerTransaction{
		UserID:      plan.UserID,
		PlanID:      &plan.ID,
		Type:        models.TransactionTypeReinvestment,
		Amount:      reinvestAmount,
		Currency:    plan.Currency,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Reinvested %s%% of %d rental payouts", pct.StringFixed(0), len(payouts)),
		BalanceType: models.BalanceTypeCash,
		Metadata: map[string]any{
			"payout_count":    len(payouts),
			"total_available": totalAvailable.String(),
		},
		ProcessedAt: &now,
	}
	if err := uow.LedgerTransactionRepository().Create(ctx, txn); err != nil {
		return decimal.Zero, &StorageError{Op: "record reinvestment", Err: err}
	}

	for _, payout := range payouts {
		payout.IsReinvested = true
		payout.ReinvestedAmount = payout.Amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
		payout.Status = models.PayoutStatusReinvested
		payout.ReinvestTransactionID = &txn.ID
		payout.PlanID = &plan.ID
		if err := uow.RentalPayoutRepository().Update(ctx, payout); err != nil {
			return decimal.Zero, &StorageError{Op: "mark payout reinvested", Err: err}
		}
	}

	plan.TotalReinvested = plan.TotalReinvested.Add(reinvestAmount)
	plan.TotalRentalIncome = plan.TotalRentalIncome.Add(totalAvailable)
	plan.PendingReinvestAmount = decimal.Zero
	plan.LastRunDate = &now

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return decimal.Zero, &StorageError{Op: "update plan", Err: err}
	}

	uow.EventBus().Publish(events.ReinvestmentProcessedEvent{
		PlanID:      plan.ID,
		UserID:      plan.UserID,
		Amount:      reinvestAmount,
		PayoutCount: len(payouts),
	})

	if err := uow.Commit(); err != nil {
		return decimal.Zero, &StorageError{Op: "commit", Err: err}
	}

	return reinvestAmount, nil
}

// ProcessDueAutoInvest selects and executes all due autoinvest plans.
// Per-plan failures are counted and logged, never propagated.
func (s *executorService) ProcessDueAutoInvest(ctx context.Context, asOf time.Time) (*models.BatchResult, error) {
	due, err := s.listDue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due plans: %w", err)
	}

	result := &models.BatchResult{Total: len(due)}
	for _, plan := range due {
		if err := s.executeAutoInvest(ctx, plan.ID); err != nil {
			result.Failed++
			log.WithFields(log.Fields{
				"planId": plan.ID,
				"userId": plan.UserID,
				"error":  err,
			}).Error("Failed to execute auto-invest plan")
			continue
		}
		result.Processed++
	}

	log.WithFields(log.Fields{
		"total":     result.Total,
		"processed": result.Processed,
		"failed":    result.Failed,
	}).Info("Auto-invest batch run complete")

	return result, nil
}

func (s *executorService) listDue(ctx context.Context, asOf time.Time) ([]*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.PlanRepository().ListDue(ctx, asOf)
}

// ProcessPendingReinvestments runs reinvestment for every active
// autoreinvest plan with the same per-plan isolation contract.
func (s *executorService) ProcessPendingReinvestments(ctx context.Context) (*models.ReinvestResult, error) {
	plans, err := s.listActiveReinvestPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list autoreinvest plans: %w", err)
	}

	result := &models.ReinvestResult{}
	for _, plan := range plans {
		amount, err := s.executeAutoReinvest(ctx, plan.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("plan %d: %v", plan.ID, err))
			log.WithFields(log.Fields{
				"planId": plan.ID,
				"userId": plan.UserID,
				"error":  err,
			}).Error("Failed to execute auto-reinvest plan")
			continue
		}
		result.Processed++
		reinvested, _ := amount.Float64()
		result.TotalReinvested += reinvested
	}

	log.WithFields(log.Fields{
		"plans":           len(plans),
		"processed":       result.Processed,
		"failed":          result.Failed,
		"totalReinvested": result.TotalReinvested,
	}).Info("Auto-reinvest run complete")

	return result, nil
}

func (s *executorService) listActiveReinvestPlans(ctx context.Context) ([]*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.PlanRepository().ListActiveByKind(ctx, models.PlanKindAutoReinvest)
}
