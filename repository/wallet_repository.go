package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"brickvest/database"
	"brickvest/models"
	"brickvest/service"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

const walletColumns = `id, user_id, currency, cash_balance, rewards_balance,
	total_balance, last_transaction_at, created_at, updated_at`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Currency,
		&w.CashBalance,
		&w.RewardsBalance,
		&w.TotalBalance,
		&w.LastTransactionAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByUserID retrieves a user's wallet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = $1
	`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %d: %w", userID, err)
	}

	return wallet, nil
}

// GetByUserIDForUpdate retrieves a user's wallet holding a row lock for
// the remainder of the enclosing transaction
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet for user %d: %w", userID, err)
	}

	return wallet, nil
}

// Create creates a wallet for a user with zero balances
func (r *WalletRepository) Create(ctx context.Context, userID int64, currency string) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		RETURNING ` + walletColumns + `
	`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for user %d: %w", userID, err)
	}

	return wallet, nil
}

// Credit adds to one of the wallet's balances atomically
func (r *WalletRepository) Credit(ctx context.Context, userID int64, balanceType models.BalanceType, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("credit amount must be positive")
	}

	column := "cash_balance"
	if balanceType == models.BalanceTypeRewards {
		column = "rewards_balance"
	}

	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s = %s + $1,
		    total_balance = total_balance + $1,
		    last_transaction_at = NOW(),
		    updated_at = NOW()
		WHERE user_id = $2
	`, column, column)

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit wallet for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return service.NewNotFoundError("wallet for user %d not found", userID)
	}

	return nil
}

// DebitCash deducts from the cash balance atomically, failing without
// mutation if the remaining balance would go negative
func (r *WalletRepository) DebitCash(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("debit amount must be positive")
	}

	// Update only if the cash balance covers the debit
	query := `
		UPDATE wallets
		SET cash_balance = cash_balance - $1,
		    total_balance = total_balance - $1,
		    last_transaction_at = NOW(),
		    updated_at = NOW()
		WHERE user_id = $2
		  AND cash_balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to debit wallet for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		// Check if the wallet exists or has insufficient cash
		wallet, err := r.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check wallet: %w", err)
		}
		if wallet == nil {
			return service.NewNotFoundError("wallet for user %d not found", userID)
		}
		return &service.InsufficientFundsError{Needed: amount, Available: wallet.CashBalance}
	}

	return nil
}
