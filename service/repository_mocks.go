package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"brickvest/events"
	"brickvest/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Create(ctx context.Context, userID int64, currency string) (*models.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID int64, balanceType models.BalanceType, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, balanceType, amount)
	return args.Error(0)
}

func (m *MockWalletRepository) DebitCash(ctx context.Context, userID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

// MockPlanRepository is a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetLiveByUserAndKind(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetLatestByUserAndKind(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) ListDue(ctx context.Context, asOf time.Time) ([]*models.Plan, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListActiveByKind(ctx context.Context, kind models.PlanKind) ([]*models.Plan, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

// MockLedgerTransactionRepository is a mock implementation of LedgerTransactionRepository
type MockLedgerTransactionRepository struct {
	mock.Mock
}

func (m *MockLedgerTransactionRepository) Create(ctx context.Context, txn *models.LedgerTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockLedgerTransactionRepository) ListCompletedByPlan(ctx context.Context, planID int64) ([]*models.LedgerTransaction, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerTransaction), args.Error(1)
}

func (m *MockLedgerTransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerTransaction), args.Error(1)
}

// MockRentalPayoutRepository is a mock implementation of RentalPayoutRepository
type MockRentalPayoutRepository struct {
	mock.Mock
}

func (m *MockRentalPayoutRepository) Create(ctx context.Context, payout *models.RentalPayout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockRentalPayoutRepository) ListUnreinvestedByUser(ctx context.Context, userID int64) ([]*models.RentalPayout, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RentalPayout), args.Error(1)
}

func (m *MockRentalPayoutRepository) Update(ctx context.Context, payout *models.RentalPayout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockRentalPayoutRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.RentalPayout, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.RentalPayout), args.Int(1), args.Error(2)
}

func (m *MockRentalPayoutRepository) Stats(ctx context.Context, userID int64) (*models.RentalStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentalStats), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// nopEventPublisher swallows events in tests that don't assert on them
type nopEventPublisher struct{}

func (nopEventPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories
// are injected through SetRepositories; nil slots fall back to a fresh
// zero-expectation mock so unrelated getters don't panic.
type MockUnitOfWork struct {
	mock.Mock

	userRepo   UserRepository
	walletRepo WalletRepository
	planRepo   PlanRepository
	ledgerRepo LedgerTransactionRepository
	payoutRepo RentalPayoutRepository
	eventBus   EventPublisher
}

// SetRepositories wires the repositories this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	walletRepo WalletRepository,
	planRepo PlanRepository,
	ledgerRepo LedgerTransactionRepository,
	payoutRepo RentalPayoutRepository,
) {
	m.userRepo = userRepo
	m.walletRepo = walletRepo
	m.planRepo = planRepo
	m.ledgerRepo = ledgerRepo
	m.payoutRepo = payoutRepo
}

// SetEventBus overrides the event publisher handed out by EventBus()
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	if m.userRepo == nil {
		m.userRepo = new(MockUserRepository)
	}
	return m.userRepo
}

func (m *MockUnitOfWork) WalletRepository() WalletRepository {
	if m.walletRepo == nil {
		m.walletRepo = new(MockWalletRepository)
	}
	return m.walletRepo
}

func (m *MockUnitOfWork) PlanRepository() PlanRepository {
	if m.planRepo == nil {
		m.planRepo = new(MockPlanRepository)
	}
	return m.planRepo
}

func (m *MockUnitOfWork) LedgerTransactionRepository() LedgerTransactionRepository {
	if m.ledgerRepo == nil {
		m.ledgerRepo = new(MockLedgerTransactionRepository)
	}
	return m.ledgerRepo
}

func (m *MockUnitOfWork) RentalPayoutRepository() RentalPayoutRepository {
	if m.payoutRepo == nil {
		m.payoutRepo = new(MockRentalPayoutRepository)
	}
	return m.payoutRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = nopEventPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
