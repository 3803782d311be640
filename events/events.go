package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"brickvest/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypePlanCreated           EventType = "plan_created"
	EventTypePlanAutoPaused        EventType = "plan_auto_paused"
	EventTypeDepositProcessed      EventType = "deposit_processed"
	EventTypeReinvestmentProcessed EventType = "reinvestment_processed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	BalanceType     models.BalanceType
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	TransactionType models.TransactionType
	ChangeAmount    decimal.Decimal
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// PlanCreatedEvent represents a new recurring plan
type PlanCreatedEvent struct {
	PlanID int64
	UserID int64
	Kind   models.PlanKind
}

func (e PlanCreatedEvent) Type() EventType {
	return EventTypePlanCreated
}

// PlanAutoPausedEvent is emitted when the executor pauses a plan on a
// funding shortfall. Notification delivery is the subscriber's
// responsibility, not the executor's.
type PlanAutoPausedEvent struct {
	PlanID    int64
	UserID    int64
	Needed    decimal.Decimal
	Available decimal.Decimal
}

func (e PlanAutoPausedEvent) Type() EventType {
	return EventTypePlanAutoPaused
}

// DepositProcessedEvent represents a completed scheduled deposit
type DepositProcessedEvent struct {
	PlanID int64
	UserID int64
	Amount decimal.Decimal
}

func (e DepositProcessedEvent) Type() EventType {
	return EventTypeDepositProcessed
}

// ReinvestmentProcessedEvent represents a completed rental reinvestment
type ReinvestmentProcessedEvent struct {
	PlanID      int64
	UserID      int64
	Amount      decimal.Decimal
	PayoutCount int
}

func (e ReinvestmentProcessedEvent) Type() EventType {
	return EventTypeReinvestmentProcessed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit. Events are emitted on
// a background context so they outlive the transaction's context.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
