package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"financas/internal/amqp"
	"financas/internal/core"
)

type fakeStore struct {
	applied    []appliedDelta
	recomputes int
	applyErr   error
}

type appliedDelta struct {
	userID      int64
	year, month int
	kind        core.TransactionKind
	deltaCents  int64
}

func (f *fakeStore) ApplyRollup(_ context.Context, userID int64, year, month int, kind core.TransactionKind, deltaCents int64) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, appliedDelta{userID, year, month, kind, deltaCents})
	return nil
}

func (f *fakeStore) RecomputeRollups(context.Context) error {
	f.recomputes++
	return nil
}

func TestHandleTransactionCreated(t *testing.T) {
	store := &fakeStore{}
	w := NewRollupWorker(store, time.Minute)

	msg := &amqp.TransactionCreatedMessage{
		TransactionID: 1,
		UserID:        7,
		Kind:          core.Income,
		AmountCents:   5000,
		Year:          2025,
		Month:         4,
	}
	if err := w.HandleTransactionCreated(context.Background(), msg); err != nil {
		t.Fatalf("HandleTransactionCreated: %v", err)
	}
	if len(store.applied) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(store.applied))
	}
	got := store.applied[0]
	if got.userID != 7 || got.year != 2025 || got.month != 4 || got.kind != core.Income || got.deltaCents != 5000 {
		t.Fatalf("delta wrong: %+v", got)
	}
}

func TestHandleTransactionCreatedRejectsBadMessage(t *testing.T) {
	w := NewRollupWorker(&fakeStore{}, time.Minute)

	bad := []*amqp.TransactionCreatedMessage{
		{UserID: 1, Kind: "refund", AmountCents: 1, Year: 2025, Month: 1},
		{UserID: 1, Kind: core.Income, AmountCents: 1, Year: 2025, Month: 0},
		{UserID: 1, Kind: core.Income, AmountCents: 1, Year: 2025, Month: 13},
	}
	for _, msg := range bad {
		if err := w.HandleTransactionCreated(context.Background(), msg); err == nil {
			t.Fatalf("expected error for %+v", msg)
		}
	}
}

func TestHandleTransactionCreatedPropagatesStoreError(t *testing.T) {
	store := &fakeStore{applyErr: errors.New("db locked")}
	w := NewRollupWorker(store, time.Minute)

	msg := &amqp.TransactionCreatedMessage{UserID: 1, Kind: core.Expense, AmountCents: 1, Year: 2025, Month: 1}
	if err := w.HandleTransactionCreated(context.Background(), msg); err == nil {
		t.Fatal("expected store error to propagate so the delivery requeues")
	}
}

func TestRunReconcileLoop(t *testing.T) {
	store := &fakeStore{}
	w := NewRollupWorker(store, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.RunReconcileLoop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RunReconcileLoop returned %v", err)
	}
	// One startup reconcile plus at least one tick.
	if store.recomputes < 2 {
		t.Fatalf("expected at least 2 reconciles, got %d", store.recomputes)
	}
}
