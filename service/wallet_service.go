package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"brickvest/config"
	"brickvest/models"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
	converter  CurrencyConverter
	now        func() time.Time
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, converter CurrencyConverter) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		converter:  converter,
		now:        time.Now,
	}
}

// GetOrCreate returns the user's wallet, creating it on first use
func (s *walletService) GetOrCreate(ctx context.Context, userID int64) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := s.getOrCreateWallet(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wallet, nil
}

func (s *walletService) getOrCreateWallet(ctx context.Context, uow UnitOfWork, userID int64) (*models.Wallet, error) {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError("user %d not found", userID)
	}

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		wallet, err = uow.WalletRepository().Create(ctx, userID, config.Get().DefaultCurrency)
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	}

	return wallet, nil
}

// Deposit credits a balance, converting into the wallet currency first
// when the deposit arrives in another one
func (s *walletService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, currency string, balanceType models.BalanceType) (*models.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("deposit amount must be positive")
	}
	if balanceType != models.BalanceTypeCash && balanceType != models.BalanceTypeRewards {
		return nil, NewValidationError("unknown balance type %q", balanceType)
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := s.getOrCreateWallet(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	if currency == "" {
		currency = wallet.Currency
	}
	credited, err := s.converter.Convert(amount, currency, wallet.Currency)
	if err != nil {
		return nil, err
	}

	if err := uow.WalletRepository().Credit(ctx, userID, balanceType, credited); err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}

	oldBalance := wallet.CashBalance
	if balanceType == models.BalanceTypeRewards {
		oldBalance = wallet.RewardsBalance
	}

	txn := &models.LedgerTransaction{
		UserID:      userID,
		Type:        models.TransactionTypeDeposit,
		Amount:      credited,
		Currency:    wallet.Currency,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Deposit of %s %s", credited.StringFixed(2), wallet.Currency),
		BalanceType: balanceType,
		ProcessedAt: &now,
	}
	if currency != wallet.Currency {
		txn.Metadata = map[string]any{
			"original_amount":   amount.String(),
			"original_currency": currency,
		}
	}
	if err := RecordLedgerEntry(ctx, uow, txn, oldBalance, oldBalance.Add(credited)); err != nil {
		return nil, err
	}

	wallet, err = uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload wallet: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wallet, nil
}

// Withdraw debits the cash balance, failing without mutation when
// funds are insufficient
func (s *walletService) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (*models.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("withdrawal amount must be positive")
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	if wallet == nil {
		return nil, NewNotFoundError("wallet for user %d not found", userID)
	}

	if err := uow.WalletRepository().DebitCash(ctx, userID, amount); err != nil {
		return nil, err
	}

	txn := &models.LedgerTransaction{
		UserID:      userID,
		Type:        models.TransactionTypeWithdrawal,
		Amount:      amount,
		Currency:    wallet.Currency,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Withdrawal of %s %s", amount.StringFixed(2), wallet.Currency),
		BalanceType: models.BalanceTypeCash,
		ProcessedAt: &now,
	}
	if err := RecordLedgerEntry(ctx, uow, txn, wallet.CashBalance, wallet.CashBalance.Sub(amount)); err != nil {
		return nil, err
	}

	wallet, err = uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload wallet: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wallet, nil
}

// RecordRentalPayout records a paid rental payout and credits the
// wallet in one transaction. The payout stays eligible for
// reinvestment until an autoreinvest run consumes it.
func (s *walletService) RecordRentalPayout(ctx context.Context, userID, projectID int64, amount decimal.Decimal) (*models.RentalPayout, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("payout amount must be positive")
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := s.getOrCreateWallet(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	payout := &models.RentalPayout{
		UserID:     userID,
		ProjectID:  projectID,
		Amount:     amount,
		Currency:   wallet.Currency,
		PayoutDate: now,
		Status:     models.PayoutStatusPaid,
	}
	if err := uow.RentalPayoutRepository().Create(ctx, payout); err != nil {
		return nil, fmt.Errorf("failed to create rental payout: %w", err)
	}

	if err := uow.WalletRepository().Credit(ctx, userID, models.BalanceTypeCash, amount); err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}

	txn := &models.LedgerTransaction{
		UserID:      userID,
		Type:        models.TransactionTypeRentPayout,
		Amount:      amount,
		Currency:    wallet.Currency,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Rental income from project %d", projectID),
		BalanceType: models.BalanceTypeCash,
		Metadata: map[string]any{
			"project_id": projectID,
			"payout_id":  payout.ID,
		},
		ProcessedAt: &now,
	}
	if err := RecordLedgerEntry(ctx, uow, txn, wallet.CashBalance, wallet.CashBalance.Add(amount)); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return payout, nil
}

// RentalHistory returns a page of the user's payouts, newest first
func (s *walletService) RentalHistory(ctx context.Context, userID int64, page, limit int) ([]*models.RentalPayout, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.RentalPayoutRepository().ListByUser(ctx, userID, limit, (page-1)*limit)
}

// Transactions returns the user's most recent ledger transactions
func (s *walletService) Transactions(ctx context.Context, userID int64, limit int) ([]*models.LedgerTransaction, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.LedgerTransactionRepository().ListByUser(ctx, userID, limit)
}
