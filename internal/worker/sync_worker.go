// Package worker runs the ledger sync: AMQP messages for live changes plus a
// periodic backfill of expenses whose messages were lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetdesk/internal/amqp"
	"budgetdesk/internal/core"
)

// Processor is the ledger side of the worker.
type Processor interface {
	SyncExpense(ctx context.Context, id, version int64) error
	DeleteExpense(ctx context.Context, id int64, date core.Date) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Consumer delivers broker messages to a handler until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, h amqp.Handler) error
}

const stopTimeout = 10 * time.Second

// SyncWorker handles synchronization of expenses from the store to the ledger
type SyncWorker struct {
	processor Processor
	consumer  Consumer
}

var _ amqp.Handler = (*SyncWorker)(nil)

// NewSyncWorker wires a processor to an optional consumer. Without a
// consumer only the backfill runs.
func NewSyncWorker(processor Processor, consumer Consumer) *SyncWorker {
	return &SyncWorker{processor: processor, consumer: consumer}
}

// HandleSync processes a single expense sync message from AMQP
func (w *SyncWorker) HandleSync(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	if err := w.processor.SyncExpense(ctx, msg.ID, msg.Version); err != nil {
		return fmt.Errorf("sync expense: %w", err)
	}
	return nil
}

// HandleDelete processes a single expense delete message from AMQP
func (w *SyncWorker) HandleDelete(ctx context.Context, msg *amqp.ExpenseDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message",
		"id", msg.ID,
		"timestamp", msg.Timestamp)

	date, err := core.ParseDate(msg.Date)
	if err != nil {
		// redelivery cannot fix a bad snapshot
		slog.ErrorContext(ctx, "Dropping delete message with invalid date",
			"id", msg.ID,
			"date", msg.Date,
			"error", err)
		return nil
	}
	if err := w.processor.DeleteExpense(ctx, msg.ID, date); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// Run starts the backfill loop and consumes messages until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	if err := w.processor.Start(ctx); err != nil {
		return fmt.Errorf("start sync processor: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := w.processor.Stop(stopCtx); err != nil {
			slog.ErrorContext(ctx, "Failed to stop sync processor", "error", err)
		}
	}()

	if w.consumer == nil {
		slog.InfoContext(ctx, "No message consumer configured, running backfill only")
		<-ctx.Done()
		return nil
	}

	slog.InfoContext(ctx, "Sync worker consuming messages")
	err := w.consumer.Consume(ctx, w)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("consume messages: %w", err)
	}
	return nil
}
