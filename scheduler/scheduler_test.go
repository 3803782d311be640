package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brickvest/models"
)

type stubExecutor struct {
	calls  int
	result *models.BatchResult
	err    error
}

func (s *stubExecutor) Execute(ctx context.Context, plan *models.Plan) error { return nil }

func (s *stubExecutor) ProcessDueAutoInvest(ctx context.Context, asOf time.Time) (*models.BatchResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubExecutor) ProcessPendingReinvestments(ctx context.Context) (*models.ReinvestResult, error) {
	return &models.ReinvestResult{}, nil
}

func TestScheduler_NextRun_BeforeHour(t *testing.T) {
	s := New(&stubExecutor{}, 9, time.UTC)

	now := time.Date(2025, time.May, 2, 7, 30, 0, 0, time.UTC)
	next := s.nextRun(now)

	assert.Equal(t, time.Date(2025, time.May, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestScheduler_NextRun_AfterHour(t *testing.T) {
	s := New(&stubExecutor{}, 9, time.UTC)

	now := time.Date(2025, time.May, 2, 9, 0, 0, 0, time.UTC)
	next := s.nextRun(now)

	// Exactly on the hour counts as elapsed
	assert.Equal(t, time.Date(2025, time.May, 3, 9, 0, 0, 0, time.UTC), next)
}

func TestScheduler_NextRun_OtherTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Tunis")
	assert.NoError(t, err)

	s := New(&stubExecutor{}, 9, loc)

	// 07:00 UTC is 08:00 in Tunis, still before the 09:00 local run
	now := time.Date(2025, time.May, 2, 7, 0, 0, 0, time.UTC)
	next := s.nextRun(now)

	assert.Equal(t, time.Date(2025, time.May, 2, 9, 0, 0, 0, loc), next)
}

func TestScheduler_TriggerManual(t *testing.T) {
	executor := &stubExecutor{result: &models.BatchResult{Processed: 2, Total: 2}}
	s := New(executor, 9, time.UTC)
	fixed := time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	result, err := s.TriggerManual(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, executor.calls)

	status := s.Status()
	assert.False(t, status.Running)
	assert.Equal(t, &fixed, status.LastRunAt)
	assert.Equal(t, result, status.LastResult)
	assert.Nil(t, status.NextRunAt)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&stubExecutor{result: &models.BatchResult{}}, 9, time.UTC)

	err := s.Start(context.Background())
	assert.NoError(t, err)

	// Double start is rejected
	err = s.Start(context.Background())
	assert.Error(t, err)

	assert.True(t, s.Status().Running)
	assert.NotNil(t, s.Status().NextRunAt)

	s.Stop()
	assert.False(t, s.Status().Running)

	// Stopping twice is harmless
	s.Stop()
}
