package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"brickvest/database"
	"brickvest/models"
)

// PlanRepository implements the PlanRepository interface
type PlanRepository struct {
	q queryable
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{q: db.Pool}
}

// newPlanRepositoryWithTx creates a new plan repository with a transaction
func newPlanRepositoryWithTx(tx queryable) *PlanRepository {
	return &PlanRepository{q: tx}
}

const planColumns = `id, user_id, kind, status, currency, theme, risk_level,
	preferred_regions, excluded_property_types, notes,
	monthly_amount, deposit_day, reinvest_percentage, minimum_reinvest_amount,
	next_run_date, last_run_date,
	total_deposited, total_invested, total_rental_income, total_reinvested,
	pending_reinvest_amount, created_at, updated_at`

// scanPlan reads one plan row, reassembling the kind-specific rule from
// the nullable payload columns
func scanPlan(row pgx.Row) (*models.Plan, error) {
	var (
		plan          models.Plan
		regionsJSON   []byte
		excludedJSON  []byte
		monthlyAmount *decimal.Decimal
		depositDay    *int
		reinvestPct   *decimal.Decimal
		minReinvest   *decimal.Decimal
	)

	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Kind,
		&plan.Status,
		&plan.Currency,
		&plan.Theme,
		&plan.RiskLevel,
		&regionsJSON,
		&excludedJSON,
		&plan.Notes,
		&monthlyAmount,
		&depositDay,
		&reinvestPct,
		&minReinvest,
		&plan.NextRunDate,
		&plan.LastRunDate,
		&plan.TotalDeposited,
		&plan.TotalInvested,
		&plan.TotalRentalIncome,
		&plan.TotalReinvested,
		&plan.PendingReinvestAmount,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(regionsJSON) > 0 {
		if err := json.Unmarshal(regionsJSON, &plan.PreferredRegions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferred regions: %w", err)
		}
	}
	if len(excludedJSON) > 0 {
		if err := json.Unmarshal(excludedJSON, &plan.ExcludedPropertyTypes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal excluded property types: %w", err)
		}
	}

	switch plan.Kind {
	case models.PlanKindAutoInvest:
		if monthlyAmount == nil || depositDay == nil {
			return nil, fmt.Errorf("autoinvest plan %d is missing its amount rule", plan.ID)
		}
		plan.AutoInvest = &models.AutoInvestRule{
			MonthlyAmount: *monthlyAmount,
			DepositDay:    *depositDay,
		}
	case models.PlanKindAutoReinvest:
		if reinvestPct == nil || minReinvest == nil {
			return nil, fmt.Errorf("autoreinvest plan %d is missing its amount rule", plan.ID)
		}
		plan.AutoReinvest = &models.AutoReinvestRule{
			ReinvestPercentage:    *reinvestPct,
			MinimumReinvestAmount: *minReinvest,
		}
	default:
		return nil, fmt.Errorf("unknown plan kind %q for plan %d", plan.Kind, plan.ID)
	}

	return &plan, nil
}

// payloadArgs flattens the kind-specific rule into the nullable payload
// column values
func payloadArgs(plan *models.Plan) (monthlyAmount *decimal.Decimal, depositDay *int, reinvestPct, minReinvest *decimal.Decimal) {
	if plan.AutoInvest != nil {
		monthlyAmount = &plan.AutoInvest.MonthlyAmount
		depositDay = &plan.AutoInvest.DepositDay
	}
	if plan.AutoReinvest != nil {
		reinvestPct = &plan.AutoReinvest.ReinvestPercentage
		minReinvest = &plan.AutoReinvest.MinimumReinvestAmount
	}
	return
}

func marshalPrefs(plan *models.Plan) (regionsJSON, excludedJSON []byte, err error) {
	if plan.PreferredRegions != nil {
		regionsJSON, err = json.Marshal(plan.PreferredRegions)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal preferred regions: %w", err)
		}
	}
	if plan.ExcludedPropertyTypes != nil {
		excludedJSON, err = json.Marshal(plan.ExcludedPropertyTypes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal excluded property types: %w", err)
		}
	}
	return regionsJSON, excludedJSON, nil
}

// Create persists a new plan and fills in its id and timestamps
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	regionsJSON, excludedJSON, err := marshalPrefs(plan)
	if err != nil {
		return err
	}
	monthlyAmount, depositDay, reinvestPct, minReinvest := payloadArgs(plan)

	query := `
		INSERT INTO plans
		(user_id, kind, status, currency, theme, risk_level,
		 preferred_regions, excluded_property_types, notes,
		 monthly_amount, deposit_day, reinvest_percentage, minimum_reinvest_amount,
		 next_run_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		plan.UserID,
		plan.Kind,
		plan.Status,
		plan.Currency,
		plan.Theme,
		plan.RiskLevel,
		regionsJSON,
		excludedJSON,
		plan.Notes,
		monthlyAmount,
		depositDay,
		reinvestPct,
		minReinvest,
		plan.NextRunDate,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create %s plan for user %d: %w", plan.Kind, plan.UserID, err)
	}

	return nil
}

// GetByID retrieves a plan by id
func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE id = $1
	`

	plan, err := scanPlan(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}

	return plan, nil
}

// GetLiveByUserAndKind returns the user's non-cancelled plan of the
// given kind, or nil. The partial unique index guarantees at most one.
func (r *PlanRepository) GetLiveByUserAndKind(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE user_id = $1 AND kind = $2 AND status <> 'cancelled'
	`

	plan, err := scanPlan(r.q.QueryRow(ctx, query, userID, kind))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live %s plan for user %d: %w", kind, userID, err)
	}

	return plan, nil
}

// GetLatestByUserAndKind returns the user's most recent plan of the
// given kind regardless of status, or nil
func (r *PlanRepository) GetLatestByUserAndKind(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE user_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	plan, err := scanPlan(r.q.QueryRow(ctx, query, userID, kind))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s plan for user %d: %w", kind, userID, err)
	}

	return plan, nil
}

// Update writes the plan's mutable fields
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	regionsJSON, excludedJSON, err := marshalPrefs(plan)
	if err != nil {
		return err
	}
	monthlyAmount, depositDay, reinvestPct, minReinvest := payloadArgs(plan)

	query := `
		UPDATE plans
		SET status = $1,
		    theme = $2,
		    risk_level = $3,
		    preferred_regions = $4,
		    excluded_property_types = $5,
		    notes = $6,
		    monthly_amount = $7,
		    deposit_day = $8,
		    reinvest_percentage = $9,
		    minimum_reinvest_amount = $10,
		    next_run_date = $11,
		    last_run_date = $12,
		    total_deposited = $13,
		    total_invested = $14,
		    total_rental_income = $15,
		    total_reinvested = $16,
		    pending_reinvest_amount = $17,
		    updated_at = NOW()
		WHERE id = $18
	`

	result, err := r.q.Exec(ctx, query,
		plan.Status,
		plan.Theme,
		plan.RiskLevel,
		regionsJSON,
		excludedJSON,
		plan.Notes,
		monthlyAmount,
		depositDay,
		reinvestPct,
		minReinvest,
		plan.NextRunDate,
		plan.LastRunDate,
		plan.TotalDeposited,
		plan.TotalInvested,
		plan.TotalRentalIncome,
		plan.TotalReinvested,
		plan.PendingReinvestAmount,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan %d: %w", plan.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan %d not found", plan.ID)
	}

	return nil
}

// ListDue returns all active autoinvest plans whose next run date has
// arrived, joined with the owning user's email in a single query
func (r *PlanRepository) ListDue(ctx context.Context, asOf time.Time) ([]*models.Plan, error) {
	query := `
		SELECT p.id, p.user_id, p.kind, p.status, p.currency, p.theme, p.risk_level,
		       p.preferred_regions, p.excluded_property_types, p.notes,
		       p.monthly_amount, p.deposit_day, p.reinvest_percentage, p.minimum_reinvest_amount,
		       p.next_run_date, p.last_run_date,
		       p.total_deposited, p.total_invested, p.total_rental_income, p.total_reinvested,
		       p.pending_reinvest_amount, p.created_at, p.updated_at,
		       u.email
		FROM plans p
		JOIN users u ON u.id = p.user_id
		WHERE p.kind = 'autoinvest'
		  AND p.status = 'active'
		  AND p.next_run_date IS NOT NULL
		  AND p.next_run_date <= $1
		ORDER BY p.next_run_date
	`

	rows, err := r.q.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		var (
			plan          models.Plan
			regionsJSON   []byte
			excludedJSON  []byte
			monthlyAmount *decimal.Decimal
			depositDay    *int
			reinvestPct   *decimal.Decimal
			minReinvest   *decimal.Decimal
		)

		err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.Kind,
			&plan.Status,
			&plan.Currency,
			&plan.Theme,
			&plan.RiskLevel,
			&regionsJSON,
			&excludedJSON,
			&plan.Notes,
			&monthlyAmount,
			&depositDay,
			&reinvestPct,
			&minReinvest,
			&plan.NextRunDate,
			&plan.LastRunDate,
			&plan.TotalDeposited,
			&plan.TotalInvested,
			&plan.TotalRentalIncome,
			&plan.TotalReinvested,
			&plan.PendingReinvestAmount,
			&plan.CreatedAt,
			&plan.UpdatedAt,
			&plan.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due plan: %w", err)
		}

		if len(regionsJSON) > 0 {
			if err := json.Unmarshal(regionsJSON, &plan.PreferredRegions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal preferred regions: %w", err)
			}
		}
		if len(excludedJSON) > 0 {
			if err := json.Unmarshal(excludedJSON, &plan.ExcludedPropertyTypes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal excluded property types: %w", err)
			}
		}

		if monthlyAmount == nil || depositDay == nil {
			return nil, fmt.Errorf("autoinvest plan %d is missing its amount rule", plan.ID)
		}
		plan.AutoInvest = &models.AutoInvestRule{
			MonthlyAmount: *monthlyAmount,
			DepositDay:    *depositDay,
		}

		plans = append(plans, &plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due plans: %w", err)
	}

	return plans, nil
}

// ListActiveByKind returns all active plans of the given kind
func (r *PlanRepository) ListActiveByKind(ctx context.Context, kind models.PlanKind) ([]*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE kind = $1 AND status = 'active'
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list active %s plans: %w", kind, err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, nil
}
