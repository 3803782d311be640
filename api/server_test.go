package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brickvest/config"
	"brickvest/models"
	"brickvest/scheduler"
	"brickvest/service"
)

// stubPlanService returns canned values so handler behavior can be
// asserted without a database.
type stubPlanService struct {
	plan *models.Plan
	err  error
}

func (s *stubPlanService) Create(ctx context.Context, userID int64, input service.CreatePlanInput) (*models.Plan, error) {
	return s.plan, s.err
}

func (s *stubPlanService) Get(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	return s.plan, s.err
}

func (s *stubPlanService) Update(ctx context.Context, userID int64, kind models.PlanKind, input service.UpdatePlanInput) (*models.Plan, error) {
	return s.plan, s.err
}

func (s *stubPlanService) Pause(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	paused := *s.plan
	paused.Status = models.PlanStatusPaused
	return &paused, s.err
}

func (s *stubPlanService) Resume(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	resumed := *s.plan
	resumed.Status = models.PlanStatusActive
	return &resumed, s.err
}

func (s *stubPlanService) Cancel(ctx context.Context, userID int64, kind models.PlanKind) (*models.Plan, error) {
	return s.plan, s.err
}

type stubWalletService struct {
	wallet *models.Wallet
	err    error
}

func (s *stubWalletService) GetOrCreate(ctx context.Context, userID int64) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubWalletService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, currency string, balanceType models.BalanceType) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubWalletService) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (*models.Wallet, error) {
	return s.wallet, s.err
}

func (s *stubWalletService) RecordRentalPayout(ctx context.Context, userID, projectID int64, amount decimal.Decimal) (*models.RentalPayout, error) {
	return &models.RentalPayout{ID: 1, UserID: userID, ProjectID: projectID, Amount: amount}, s.err
}

func (s *stubWalletService) RentalHistory(ctx context.Context, userID int64, page, limit int) ([]*models.RentalPayout, int, error) {
	return nil, 0, s.err
}

func (s *stubWalletService) Transactions(ctx context.Context, userID int64, limit int) ([]*models.LedgerTransaction, error) {
	return nil, s.err
}

type stubExecutorService struct {
	reinvestResult *models.ReinvestResult
	batchCalls     int
}

func (s *stubExecutorService) Execute(ctx context.Context, plan *models.Plan) error { return nil }

func (s *stubExecutorService) ProcessDueAutoInvest(ctx context.Context, asOf time.Time) (*models.BatchResult, error) {
	s.batchCalls++
	return &models.BatchResult{Processed: 2, Failed: 0, Total: 2}, nil
}

func (s *stubExecutorService) ProcessPendingReinvestments(ctx context.Context) (*models.ReinvestResult, error) {
	return s.reinvestResult, nil
}

type stubStatsService struct {
	planStats *models.PlanStats
	err       error
}

func (s *stubStatsService) PlanStats(ctx context.Context, userID int64) (*models.PlanStats, error) {
	return s.planStats, s.err
}

func (s *stubStatsService) RentalStats(ctx context.Context, userID int64) (*models.RentalStats, error) {
	return &models.RentalStats{}, s.err
}

type serverFixture struct {
	server   *Server
	plans    *stubPlanService
	wallets  *stubWalletService
	executor *stubExecutorService
	stats    *stubStatsService
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	plans := &stubPlanService{
		plan: &models.Plan{
			ID:     1,
			UserID: 10,
			Kind:   models.PlanKindAutoInvest,
			Status: models.PlanStatusActive,
		},
	}
	wallets := &stubWalletService{wallet: &models.Wallet{ID: 1, UserID: 10, Currency: "TND"}}
	executor := &stubExecutorService{reinvestResult: &models.ReinvestResult{Processed: 1}}
	stats := &stubStatsService{planStats: &models.PlanStats{HasActivePlan: true}}
	sched := scheduler.New(executor, 9, time.UTC)

	return &serverFixture{
		server:   NewServer(config.Get(), plans, wallets, executor, stats, sched),
		plans:    plans,
		wallets:  wallets,
		executor: executor,
		stats:    stats,
	}
}

func (f *serverFixture) request(t *testing.T, method, path string, body any, withUser bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if withUser {
		req.Header.Set("X-User-ID", "10")
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestRequireUser_MissingHeader(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/wallet", nil, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
}

func TestRequireUser_InvalidHeader(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePlan_Success(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/plans", map[string]any{
		"kind":          "autoinvest",
		"monthlyAmount": "200",
		"depositDay":    15,
	}, true)

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "Plan created", envelope["message"])
}

func TestCreatePlan_ValidationErrorMapsTo400(t *testing.T) {
	f := newServerFixture(t)
	f.plans.err = service.NewValidationError("monthly amount must be at least 100")

	rec := f.request(t, http.MethodPost, "/api/plans", map[string]any{
		"kind": "autoinvest",
	}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	assert.Contains(t, envelope["message"], "monthly amount")
}

func TestCreatePlan_EligibilityErrorMapsTo400(t *testing.T) {
	f := newServerFixture(t)
	f.plans.err = service.NewEligibilityError("lifetime investment below threshold")

	rec := f.request(t, http.MethodPost, "/api/plans", map[string]any{
		"kind": "autoreinvest",
	}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPlan_UnknownKindIs404(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/plans/weekly", nil, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPlan_NoPlanIs404(t *testing.T) {
	f := newServerFixture(t)
	f.plans.plan = nil

	rec := f.request(t, http.MethodGet, "/api/plans/autoinvest", nil, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTogglePlan_ActivePauses(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/plans/autoinvest/toggle", nil, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Plan paused", envelope["message"])
}

func TestTogglePlan_PausedResumes(t *testing.T) {
	f := newServerFixture(t)
	f.plans.plan.Status = models.PlanStatusPaused

	rec := f.request(t, http.MethodPost, "/api/plans/autoinvest/toggle", nil, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Plan resumed", envelope["message"])
}

func TestTogglePlan_ExplicitAction(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/plans/autoinvest/toggle", map[string]any{
		"action": "pause",
	}, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/plans/autoinvest/toggle", map[string]any{
		"action": "restart",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTogglePlan_CancelledConflicts(t *testing.T) {
	f := newServerFixture(t)
	f.plans.plan.Status = models.PlanStatusCancelled

	rec := f.request(t, http.MethodPost, "/api/plans/autoinvest/toggle", nil, true)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlanStats_OnlyAutoInvest(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/plans/autoreinvest/stats", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/plans/autoinvest/stats", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["hasActivePlan"])
}

func TestWithdraw_InsufficientFundsMapsTo402(t *testing.T) {
	f := newServerFixture(t)
	f.wallets.err = &service.InsufficientFundsError{
		Needed:    decimal.NewFromInt(500),
		Available: decimal.NewFromInt(100),
	}

	rec := f.request(t, http.MethodPost, "/api/wallet/withdrawals", map[string]any{
		"amount": "500",
	}, true)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestDeposit_DefaultsToCashBalance(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/wallet/deposits", map[string]any{
		"amount":   "250",
		"currency": "TND",
	}, true)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStorageErrorMapsTo503(t *testing.T) {
	f := newServerFixture(t)
	f.wallets.err = &service.StorageError{Op: "get wallet", Err: context.DeadlineExceeded}

	rec := f.request(t, http.MethodGet, "/api/wallet", nil, true)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestManualAutoInvestRun(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/processing/autoinvest", nil, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.executor.batchCalls)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, data["processed"])
}

func TestSchedulerStatus_NotRunning(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/scheduler/status", nil, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["running"])
}

func TestHealthEndpointNeedsNoIdentity(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodGet, "/health", nil, false)

	assert.Equal(t, http.StatusOK, rec.Code)
}
