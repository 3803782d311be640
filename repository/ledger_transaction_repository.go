package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"brickvest/database"
	"brickvest/models"
)

// LedgerTransactionRepository implements the append-only ledger. There
// is deliberately no update method.
type LedgerTransactionRepository struct {
	q queryable
}

// NewLedgerTransactionRepository creates a new ledger transaction repository
func NewLedgerTransactionRepository(db *database.DB) *LedgerTransactionRepository {
	return &LedgerTransactionRepository{q: db.Pool}
}

// newLedgerTransactionRepositoryWithTx creates a new ledger transaction repository with a transaction
func newLedgerTransactionRepositoryWithTx(tx queryable) *LedgerTransactionRepository {
	return &LedgerTransactionRepository{q: tx}
}

const ledgerColumns = `id, reference, user_id, plan_id, type, amount, currency,
	status, description, balance_type, metadata, processed_at, created_at`

func scanLedgerTransaction(row pgx.Row) (*models.LedgerTransaction, error) {
	var (
		txn          models.LedgerTransaction
		metadataJSON []byte
	)

	err := row.Scan(
		&txn.ID,
		&txn.Reference,
		&txn.UserID,
		&txn.PlanID,
		&txn.Type,
		&txn.Amount,
		&txn.Currency,
		&txn.Status,
		&txn.Description,
		&txn.BalanceType,
		&metadataJSON,
		&txn.ProcessedAt,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &txn.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
	}

	return &txn, nil
}

// Create appends a transaction record and fills in its id, reference
// and creation time. The reference is generated here so callers never
// have to supply one.
func (r *LedgerTransactionRepository) Create(ctx context.Context, txn *models.LedgerTransaction) error {
	if txn.Reference == "" {
		txn.Reference = uuid.NewString()
	}

	var metadataJSON []byte
	if txn.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(txn.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction metadata: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_transactions
		(reference, user_id, plan_id, type, amount, currency, status,
		 description, balance_type, metadata, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.Reference,
		txn.UserID,
		txn.PlanID,
		txn.Type,
		txn.Amount,
		txn.Currency,
		txn.Status,
		txn.Description,
		txn.BalanceType,
		metadataJSON,
		txn.ProcessedAt,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create %s transaction for user %d: %w", txn.Type, txn.UserID, err)
	}

	return nil
}

// ListCompletedByPlan returns a plan's completed transactions in
// chronological order
func (r *LedgerTransactionRepository) ListCompletedByPlan(ctx context.Context, planID int64) ([]*models.LedgerTransaction, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_transactions
		WHERE plan_id = $1 AND status = 'completed'
		ORDER BY created_at
	`

	rows, err := r.q.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var txns []*models.LedgerTransaction
	for rows.Next() {
		txn, err := scanLedgerTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// ListByUser returns a user's transactions, newest first
func (r *LedgerTransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerTransaction, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txns []*models.LedgerTransaction
	for rows.Next() {
		txn, err := scanLedgerTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}
