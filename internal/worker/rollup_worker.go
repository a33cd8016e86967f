package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/amqp"
	"financas/internal/core"
)

// RollupStore is the slice of the repository the worker needs.
type RollupStore interface {
	ApplyRollup(ctx context.Context, userID int64, year, month int, kind core.TransactionKind, deltaCents int64) error
	RecomputeRollups(ctx context.Context) error
}

// RollupWorker keeps the monthly_rollups table in step with the
// transaction stream. Events apply incremental deltas; a periodic
// reconcile rebuilds the table from scratch so any missed or
// double-applied delta heals on the next pass.
type RollupWorker struct {
	store             RollupStore
	reconcileInterval time.Duration
}

func NewRollupWorker(store RollupStore, reconcileInterval time.Duration) *RollupWorker {
	return &RollupWorker{
		store:             store,
		reconcileInterval: reconcileInterval,
	}
}

// HandleTransactionCreated applies one event's delta to its rollup
// bucket.
func (w *RollupWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	if err := msg.Kind.Validate(); err != nil {
		return fmt.Errorf("message kind %q: %w", msg.Kind, err)
	}
	if msg.Month < 1 || msg.Month > 12 {
		return fmt.Errorf("message month %d out of range", msg.Month)
	}

	if err := w.store.ApplyRollup(ctx, msg.UserID, msg.Year, msg.Month, msg.Kind, msg.AmountCents); err != nil {
		return fmt.Errorf("apply rollup delta: %w", err)
	}

	slog.InfoContext(ctx, "Rollup delta applied",
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"kind", msg.Kind,
		"year", msg.Year,
		"month", msg.Month,
		"amount_cents", msg.AmountCents)

	return nil
}

// Reconcile rebuilds all rollups from the transactions table.
func (w *RollupWorker) Reconcile(ctx context.Context) error {
	start := time.Now()
	if err := w.store.RecomputeRollups(ctx); err != nil {
		return fmt.Errorf("recompute rollups: %w", err)
	}
	slog.InfoContext(ctx, "Rollup reconcile completed", "duration", time.Since(start))
	return nil
}

// RunReconcileLoop reconciles once at startup and then on every tick
// until the context is cancelled.
func (w *RollupWorker) RunReconcileLoop(ctx context.Context) error {
	if err := w.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial reconcile failed", "error", err)
	}

	ticker := time.NewTicker(w.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping reconcile loop", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "Reconcile failed", "error", err)
			}
		}
	}
}
