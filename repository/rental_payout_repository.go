package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"brickvest/database"
	"brickvest/models"
)

// RentalPayoutRepository implements the RentalPayoutRepository interface
type RentalPayoutRepository struct {
	q queryable
}

// NewRentalPayoutRepository creates a new rental payout repository
func NewRentalPayoutRepository(db *database.DB) *RentalPayoutRepository {
	return &RentalPayoutRepository{q: db.Pool}
}

// newRentalPayoutRepositoryWithTx creates a new rental payout repository with a transaction
func newRentalPayoutRepositoryWithTx(tx queryable) *RentalPayoutRepository {
	return &RentalPayoutRepository{q: tx}
}

const payoutColumns = `id, user_id, project_id, amount, currency, payout_date,
	is_reinvested, reinvested_amount, reinvest_transaction_id, plan_id,
	status, notes, created_at, updated_at`

func scanPayout(row pgx.Row) (*models.RentalPayout, error) {
	var p models.RentalPayout
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ProjectID,
		&p.Amount,
		&p.Currency,
		&p.PayoutDate,
		&p.IsReinvested,
		&p.ReinvestedAmount,
		&p.ReinvestTransactionID,
		&p.PlanID,
		&p.Status,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a payout and fills in its id and timestamps
func (r *RentalPayoutRepository) Create(ctx context.Context, payout *models.RentalPayout) error {
	query := `
		INSERT INTO rental_payouts
		(user_id, project_id, amount, currency, payout_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		payout.UserID,
		payout.ProjectID,
		payout.Amount,
		payout.Currency,
		payout.PayoutDate,
		payout.Status,
		payout.Notes,
	).Scan(&payout.ID, &payout.CreatedAt, &payout.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create rental payout for user %d: %w", payout.UserID, err)
	}

	return nil
}

// ListUnreinvestedByUser returns payouts still eligible for
// reinvestment, oldest first. Parked payouts stay in this set until a
// run finally reinvests them.
func (r *RentalPayoutRepository) ListUnreinvestedByUser(ctx context.Context, userID int64) ([]*models.RentalPayout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM rental_payouts
		WHERE user_id = $1
		  AND is_reinvested = FALSE
		  AND status IN ('paid', 'partially_reinvested')
		ORDER BY payout_date
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreinvested payouts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var payouts []*models.RentalPayout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental payout: %w", err)
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rental payouts: %w", err)
	}

	return payouts, nil
}

// Update writes a payout's mutable fields
func (r *RentalPayoutRepository) Update(ctx context.Context, payout *models.RentalPayout) error {
	query := `
		UPDATE rental_payouts
		SET is_reinvested = $1,
		    reinvested_amount = $2,
		    reinvest_transaction_id = $3,
		    plan_id = $4,
		    status = $5,
		    notes = $6,
		    updated_at = NOW()
		WHERE id = $7
	`

	result, err := r.q.Exec(ctx, query,
		payout.IsReinvested,
		payout.ReinvestedAmount,
		payout.ReinvestTransactionID,
		payout.PlanID,
		payout.Status,
		payout.Notes,
		payout.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rental payout %d: %w", payout.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("rental payout %d not found", payout.ID)
	}

	return nil
}

// ListByUser returns a page of the user's payouts, newest first, along
// with the total count for pagination
func (r *RentalPayoutRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.RentalPayout, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM rental_payouts WHERE user_id = $1`
	if err := r.q.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rental payouts for user %d: %w", userID, err)
	}

	query := `
		SELECT ` + payoutColumns + `
		FROM rental_payouts
		WHERE user_id = $1
		ORDER BY payout_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rental payouts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var payouts []*models.RentalPayout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan rental payout: %w", err)
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rental payouts: %w", err)
	}

	return payouts, total, nil
}

// Stats aggregates the user's rental income position in one query
func (r *RentalPayoutRepository) Stats(ctx context.Context, userID int64) (*models.RentalStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(reinvested_amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE is_reinvested = FALSE
				AND status IN ('paid', 'partially_reinvested')), 0),
			COUNT(*),
			MAX(payout_date)
		FROM rental_payouts
		WHERE user_id = $1
	`

	var (
		stats          models.RentalStats
		lastPayoutDate *time.Time
	)
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&stats.TotalRentalIncome,
		&stats.TotalReinvested,
		&stats.AvailableToReinvest,
		&stats.PayoutCount,
		&lastPayoutDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rental stats for user %d: %w", userID, err)
	}

	stats.LastPayoutDate = lastPayoutDate
	return &stats, nil
}
