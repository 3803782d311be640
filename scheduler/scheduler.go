package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"brickvest/models"
	"brickvest/service"
)

// Status is a snapshot of the scheduler's state for operators
type Status struct {
	Running    bool                `json:"running"`
	Hour       int                 `json:"hour"`
	Timezone   string              `json:"timezone"`
	NextRunAt  *time.Time          `json:"nextRunAt"`
	LastRunAt  *time.Time          `json:"lastRunAt"`
	LastResult *models.BatchResult `json:"lastResult"`
}

// Scheduler fires the due-plan batch once a day at a fixed local hour.
// It owns no business logic; everything it does goes through the
// executor, so a manual trigger and a timer tick are interchangeable.
type Scheduler struct {
	executor service.ExecutorService
	hour     int
	loc      *time.Location
	now      func() time.Time

	mu         sync.Mutex
	running    bool
	stopChan   chan struct{}
	lastRunAt  *time.Time
	lastResult *models.BatchResult
}

// New creates a scheduler that runs at the given local hour
func New(executor service.ExecutorService, hour int, loc *time.Location) *Scheduler {
	return &Scheduler{
		executor: executor,
		hour:     hour,
		loc:      loc,
		now:      time.Now,
	}
}

// Start launches the daily loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})

	go s.loop(ctx, s.stopChan)

	log.WithFields(log.Fields{
		"hour":     s.hour,
		"timezone": s.loc.String(),
	}).Info("Daily processing scheduler started")

	return nil
}

// Stop requests a graceful shutdown of the daily loop
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
}

func (s *Scheduler) loop(ctx context.Context, stopChan chan struct{}) {
	for {
		wait := s.nextRun(s.now()).Sub(s.now())
		log.WithField("wait", wait.Round(time.Second)).Debug("Scheduler waiting for next daily run")

		select {
		case <-ctx.Done():
			log.Info("Scheduler shutting down (context cancelled)")
			return
		case <-stopChan:
			log.Info("Scheduler shutting down (stop requested)")
			return
		case <-time.After(wait):
			// The batch must not die with the request context of
			// whoever started the scheduler
			if _, err := s.runBatch(context.Background()); err != nil {
				log.WithError(err).Error("Daily batch run failed")
			}
		}
	}
}

// nextRun returns today's run time if it is still ahead, otherwise
// tomorrow's
func (s *Scheduler) nextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, s.loc)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TriggerManual runs the batch immediately with the same contract as
// the timer tick. Safe to call twice: an already-executed plan is no
// longer due.
func (s *Scheduler) TriggerManual(ctx context.Context) (*models.BatchResult, error) {
	return s.runBatch(ctx)
}

func (s *Scheduler) runBatch(ctx context.Context) (*models.BatchResult, error) {
	now := s.now()
	result, err := s.executor.ProcessDueAutoInvest(ctx, now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastRunAt = &now
	s.lastResult = result
	s.mu.Unlock()

	return result, nil
}

// Status reports the scheduler's current state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:    s.running,
		Hour:       s.hour,
		Timezone:   s.loc.String(),
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
	}
	if s.running {
		next := s.nextRun(s.now())
		status.NextRunAt = &next
	}
	return status
}
