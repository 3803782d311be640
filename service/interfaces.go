package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"brickvest/events"
	"brickvest/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by id
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// GetByUserID retrieves a user's wallet
	GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error)

	// GetByUserIDForUpdate retrieves a user's wallet holding a row lock
	// for the remainder of the enclosing transaction
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Wallet, error)

	// Create creates a wallet for a user with zero balances
	Create(ctx context.Context, userID int64, currency string) (*models.Wallet, error)

	// Credit adds to one of the wallet's balances and refreshes the
	// derived total and last transaction time
	Credit(ctx context.Context, userID int64, balanceType models.BalanceType, amount decimal.Decimal) error

	// DebitCash deducts from the cash balance, failing if the remaining
	// balance would go negative
	DebitCash(ctx context.Context, userID int64, amount decimal.Decimal) error
}

// PlanRepository defines the interface for plan data access
type PlanRepository interface {
	// Create persists a new plan and fills in its id and timestamps
	Create(ctx context.Context, plan *models.Plan) error

	// GetByID retrieves a plan by id
	GetByID(ctx context.Context, id int64) (*models.Plan, error)

	// GetLiveByUserAndKind returns the user's non-cancelled plan of the
	// given kind, or nil
	GetLiveByUserAndKind(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error)

	// GetLatestByUserAndKind returns the user's most recent plan of the
	// given kind regardless of status, or nil
	GetLatestByUserAndKind(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error)

	// Update writes the plan's mutable fields
	Update(ctx context.Context, plan *models.Plan) error

	// ListDue returns all active autoinvest plans whose next run date
	// has arrived, joined with the owning user reference. Single query.
	ListDue(ctx context.Context, asOf time.Time) ([]*models.Plan, error)

	// ListActiveByKind returns all active plans of the given kind
	ListActiveByKind(ctx context.Context, kind models.PlanKind) ([]*models.Plan, error)
}

// LedgerTransactionRepository defines the interface for the append-only
// transaction ledger. There is deliberately no update operation.
type LedgerTransactionRepository interface {
	// Create appends a transaction record and fills in its id
	Create(ctx context.Context, txn *models.LedgerTransaction) error

	// ListCompletedByPlan returns a plan's completed transactions in
	// chronological order
	ListCompletedByPlan(ctx context.Context, planID int64) ([]*models.LedgerTransaction, error)

	// ListByUser returns a user's transactions, newest first
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerTransaction, error)
}

// RentalPayoutRepository defines the interface for rental payout data access
type RentalPayoutRepository interface {
	// Create persists a payout and fills in its id
	Create(ctx context.Context, payout *models.RentalPayout) error

	// ListUnreinvestedByUser returns payouts still eligible for
	// reinvestment (paid or parked below threshold)
	ListUnreinvestedByUser(ctx context.Context, userID int64) ([]*models.RentalPayout, error)

	// Update writes a payout's mutable fields
	Update(ctx context.Context, payout *models.RentalPayout) error

	// ListByUser returns a page of the user's payouts, newest first
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.RentalPayout, int, error)

	// Stats aggregates the user's rental income position
	Stats(ctx context.Context, userID int64) (*models.RentalStats, error)
}

// PlanService defines the interface for plan lifecycle operations
type PlanService interface {
	// Create creates a plan after validation and eligibility checks
	Create(ctx context.Context, userID int64, input CreatePlanInput) (*models.Plan, error)

	// Get returns the user's most recent plan of the kind, or nil
	Get(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error)

	// Update applies a partial rule update to the user's live plan
	Update(ctx context.Context, userID int64, kind models.PlanKind, input UpdatePlanInput) (*models.Plan, error)

	// Pause suspends an active plan and clears its next run date
	Pause(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error)

	// Resume reactivates a paused plan and recomputes its next run date
	Resume(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error)

	// Cancel terminally cancels the user's live plan
	Cancel(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error)
}

// ExecutorService is the atomic per-plan unit of work plus its batch
// entry points
type ExecutorService interface {
	// Execute runs one plan's unit of work, dispatching on kind.
	// Everything it does happens inside a single storage transaction.
	Execute(ctx context.Context, plan *models.Plan) error

	// ProcessDueAutoInvest selects and executes all due autoinvest
	// plans. Per-plan failures are counted, never propagated.
	ProcessDueAutoInvest(ctx context.Context, asOf time.Time) (*models.BatchResult, error)

	// ProcessPendingReinvestments runs reinvestment for every active
	// autoreinvest plan with the same isolation contract.
	ProcessPendingReinvestments(ctx context.Context) (*models.ReinvestResult, error)
}

// WalletService defines wallet flows external to the processor
type WalletService interface {
	// GetOrCreate returns the user's wallet, creating it on first use
	GetOrCreate(ctx context.Context, userID int64) (*models.Wallet, error)

	// Deposit credits a balance, converting currency if needed
	Deposit(ctx context.Context, userID int64, amount decimal.Decimal, currency string, balanceType models.BalanceType) (*models.Wallet, error)

	// Withdraw debits the cash balance, failing without mutation when
	// funds are insufficient
	Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (*models.Wallet, error)

	// RecordRentalPayout records a paid rental payout and credits the
	// wallet in one transaction
	RecordRentalPayout(ctx context.Context, userID, projectID int64, amount decimal.Decimal) (*models.RentalPayout, error)

	// RentalHistory returns a page of the user's payouts
	RentalHistory(ctx context.Context, userID int64, page, limit int) ([]*models.RentalPayout, int, error)

	// Transactions returns the user's most recent ledger transactions
	Transactions(ctx context.Context, userID int64, limit int) ([]*models.LedgerTransaction, error)
}

// StatsService derives read-only performance metrics from the plan and
// its transaction history
type StatsService interface {
	// PlanStats projects performance figures for the user's autoinvest plan
	PlanStats(ctx context.Context, userID int64) (*models.PlanStats, error)

	// RentalStats aggregates the user's rental income position
	RentalStats(ctx context.Context, userID int64) (*models.RentalStats, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	WalletRepository() WalletRepository
	PlanRepository() PlanRepository
	LedgerTransactionRepository() LedgerTransactionRepository
	RentalPayoutRepository() RentalPayoutRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
