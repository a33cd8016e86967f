package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"financas/internal/core"
)

type fakeStore struct {
	users       []core.User
	saved       []core.Transaction
	monthTxs    []core.Transaction
	createErr   error
	upsertErr   error
	nextID      int64
	listMonthFn func(userID int64, kind core.TransactionKind, year, month int)
}

func (f *fakeStore) UpsertUser(_ context.Context, u core.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.users = append(f.users, u)
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	f.nextID++
	t.ID = f.nextID
	f.saved = append(f.saved, t)
	return t, nil
}

func (f *fakeStore) ListTransactionsByMonth(_ context.Context, userID int64, kind core.TransactionKind, year, month int) ([]core.Transaction, error) {
	if f.listMonthFn != nil {
		f.listMonthFn(userID, kind, year, month)
	}
	return f.monthTxs, nil
}

type fakePublisher struct {
	published []core.Transaction
	err       error
}

func (f *fakePublisher) PublishTransactionCreated(_ context.Context, t core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, t)
	return nil
}

func validTx() core.Transaction {
	return core.Transaction{
		Kind:        core.Income,
		Description: "Salário de maio",
		Category:    "Salário",
		Channel:     "Principal",
		Amount:      core.Money{Cents: 500000},
		OccurredAt:  core.NewDate(2025, 5, 5),
	}
}

func TestRegisterUser(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, nil)

	u := core.User{ID: 7, FirstName: "Ana", Username: "ana"}
	if err := svc.RegisterUser(context.Background(), u); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if len(store.users) != 1 || store.users[0] != u {
		t.Fatalf("user not upserted: %+v", store.users)
	}
}

func TestRegisterUserRejectsZeroID(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, nil)

	if err := svc.RegisterUser(context.Background(), core.User{FirstName: "Ana"}); err == nil {
		t.Fatal("expected error for zero user id")
	}
	if len(store.users) != 0 {
		t.Fatal("invalid user must not reach the store")
	}
}

func TestRegisterUserStoreError(t *testing.T) {
	svc := NewTransactionService(&fakeStore{upsertErr: errors.New("disk full")}, nil)

	if err := svc.RegisterUser(context.Background(), core.User{ID: 7}); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestRecordSavesAndPublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	saved, err := svc.Record(context.Background(), core.User{ID: 7, FirstName: "Ana"}, validTx())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if saved.ID == 0 || saved.UserID != 7 {
		t.Fatalf("saved transaction wrong: %+v", saved)
	}
	if len(store.users) != 1 || store.users[0].ID != 7 {
		t.Fatalf("user not upserted: %+v", store.users)
	}
	if len(pub.published) != 1 || pub.published[0].ID != saved.ID {
		t.Fatalf("event not published: %+v", pub.published)
	}
}

func TestRecordPublishFailureDoesNotFailSave(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)

	saved, err := svc.Record(context.Background(), core.User{ID: 7}, validTx())
	if err != nil {
		t.Fatalf("Record should not fail on publish error: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("transaction not saved")
	}
}

func TestRecordNilPublisher(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, nil)

	if _, err := svc.Record(context.Background(), core.User{ID: 7}, validTx()); err != nil {
		t.Fatalf("Record without publisher: %v", err)
	}
}

func TestRecordRejectsInvalidTransaction(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, &fakePublisher{})

	tx := validTx()
	tx.Amount.Cents = 0
	if _, err := svc.Record(context.Background(), core.User{ID: 7}, tx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("invalid transaction must not reach the store")
	}
}

func TestRecordStoreError(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	if _, err := svc.Record(context.Background(), core.User{ID: 7}, validTx()); err == nil {
		t.Fatal("expected store error to propagate")
	}
	if len(pub.published) != 0 {
		t.Fatal("must not publish when the save failed")
	}
}

func TestRecordRunsAfterSaveHooks(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, nil)

	calls := 0
	svc.AfterSave(func() { calls++ })

	if _, err := svc.Record(context.Background(), core.User{ID: 7}, validTx()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if calls != 1 {
		t.Fatalf("hook ran %d times, want 1", calls)
	}
}

func TestRecordFailedSaveSkipsHooks(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	svc := NewTransactionService(store, nil)

	calls := 0
	svc.AfterSave(func() { calls++ })

	if _, err := svc.Record(context.Background(), core.User{ID: 7}, validTx()); err == nil {
		t.Fatal("expected store error")
	}
	if calls != 0 {
		t.Fatal("hook must not run when the save failed")
	}
}

func TestReport(t *testing.T) {
	store := &fakeStore{
		monthTxs: []core.Transaction{
			{Description: "Mercado", Category: "Alimentação", Amount: core.Money{Cents: 15000}, Kind: core.Expense, OccurredAt: core.NewDate(2025, 5, 3)},
			{Description: "Aluguel", Category: "Moradia", Amount: core.Money{Cents: 120000}, Kind: core.Expense, OccurredAt: core.NewDate(2025, 5, 10)},
		},
	}
	svc := NewTransactionService(store, nil)

	report, err := svc.Report(context.Background(), 7, core.Expense, 2025, 5)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Total.Cents != 135000 {
		t.Fatalf("Total = %d, want 135000", report.Total.Cents)
	}

	text := report.Format()
	if !strings.Contains(text, "Despesas de Maio/2025") {
		t.Fatalf("header missing: %q", text)
	}
	if !strings.Contains(text, "Mercado") || !strings.Contains(text, "R$ 1200,00") {
		t.Fatalf("lines missing: %q", text)
	}
	if !strings.Contains(text, "Total: R$ 1350,00") {
		t.Fatalf("total missing: %q", text)
	}
}

func TestReportEmptyMonth(t *testing.T) {
	svc := NewTransactionService(&fakeStore{}, nil)

	report, err := svc.Report(context.Background(), 7, core.Income, 2025, 2)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	text := report.Format()
	if !strings.Contains(text, "Receitas de Fevereiro/2025") || !strings.Contains(text, "Nenhum registro encontrado.") {
		t.Fatalf("empty report wrong: %q", text)
	}
}

func TestReportRejectsBadInput(t *testing.T) {
	svc := NewTransactionService(&fakeStore{}, nil)

	if _, err := svc.Report(context.Background(), 7, "refund", 2025, 1); err == nil {
		t.Fatal("expected error for bad kind")
	}
	if _, err := svc.Report(context.Background(), 7, core.Income, 2025, 13); err == nil {
		t.Fatal("expected error for bad month")
	}
}
