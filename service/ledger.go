package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"brickvest/events"
	"brickvest/models"
)

// RecordLedgerEntry appends a ledger transaction and publishes the
// corresponding balance change event. This is the single entry point
// for every ledger write coupled to a wallet mutation; the event is
// flushed only after the unit of work commits.
func RecordLedgerEntry(ctx context.Context, uow UnitOfWork, txn *models.LedgerTransaction, oldBalance, newBalance decimal.Decimal) error {
	if err := uow.LedgerTransactionRepository().Create(ctx, txn); err != nil {
		return fmt.Errorf("failed to record ledger transaction: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:          txn.UserID,
		BalanceType:     txn.BalanceType,
		OldBalance:      oldBalance,
		NewBalance:      newBalance,
		TransactionType: txn.Type,
		ChangeAmount:    newBalance.Sub(oldBalance),
	}
	uow.EventBus().Publish(event)

	return nil
}
