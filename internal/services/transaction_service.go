package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"financas/internal/core"
)

// TransactionStore is the storage surface the service depends on.
type TransactionStore interface {
	UpsertUser(ctx context.Context, u core.User) error
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, userID int64, kind core.TransactionKind, year, month int) ([]core.Transaction, error)
}

// EventPublisher publishes domain events after a successful save.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, t core.Transaction) error
}

// TransactionService orchestrates transaction writes across SQLite and
// AMQP. The save is authoritative; the event publish is best effort and
// never fails the request, since the worker's periodic reconcile covers
// missed events.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	afterSave []func()
}

// AfterSave registers a callback invoked after every successful save.
// The dashboard hooks its cache invalidation here.
func (s *TransactionService) AfterSave(fn func()) {
	s.afterSave = append(s.afterSave, fn)
}

func NewTransactionService(store TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// RegisterUser creates or refreshes the user record. The bot calls it
// on /start so users show up in the dashboard before their first
// transaction.
func (s *TransactionService) RegisterUser(ctx context.Context, u core.User) error {
	if u.ID == 0 {
		return fmt.Errorf("user id required")
	}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return nil
}

// Record validates and persists a transaction for the user, then
// publishes the created event.
func (s *TransactionService) Record(ctx context.Context, u core.User, t core.Transaction) (core.Transaction, error) {
	t.UserID = u.ID
	if err := t.Validate(time.Now().UTC()); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.UpsertUser(ctx, u); err != nil {
		return core.Transaction{}, fmt.Errorf("upsert user: %w", err)
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishCreated(ctx, saved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction created message",
			"transaction_id", saved.ID, "error", err)
		// Don't fail the request - transaction is saved locally
	}

	for _, fn := range s.afterSave {
		fn()
	}

	return saved, nil
}

func (s *TransactionService) publishCreated(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping created message")
		return nil
	}
	return s.publisher.PublishTransactionCreated(ctx, t)
}

// MonthReport is one user's transactions of a kind in a month, with
// the total.
type MonthReport struct {
	Kind         core.TransactionKind
	Year         int
	Month        int
	Transactions []core.Transaction
	Total        core.Money
}

// Report loads the month's transactions of one kind for a user.
func (s *TransactionService) Report(ctx context.Context, userID int64, kind core.TransactionKind, year, month int) (MonthReport, error) {
	if err := kind.Validate(); err != nil {
		return MonthReport{}, err
	}
	if month < 1 || month > 12 {
		return MonthReport{}, fmt.Errorf("month %d out of range", month)
	}

	txs, err := s.store.ListTransactionsByMonth(ctx, userID, kind, year, month)
	if err != nil {
		return MonthReport{}, fmt.Errorf("list month transactions: %w", err)
	}

	report := MonthReport{Kind: kind, Year: year, Month: month, Transactions: txs}
	for _, t := range txs {
		report.Total.Cents += t.Amount.Cents
	}
	return report, nil
}

// Format renders the report as the chat message the bot sends back.
func (r MonthReport) Format() string {
	label := "Receitas"
	if r.Kind == core.Expense {
		label = "Despesas"
	}
	monthName := ""
	if r.Month >= 1 && r.Month <= 12 {
		monthName = core.MonthNames[r.Month-1]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s de %s/%d:\n\n", label, monthName, r.Year)

	if len(r.Transactions) == 0 {
		b.WriteString("Nenhum registro encontrado.")
		return b.String()
	}

	for _, t := range r.Transactions {
		fmt.Fprintf(&b, "%02d/%02d - %s (%s): %s\n",
			t.OccurredAt.Day(), t.OccurredAt.Month(),
			t.Description, t.Category, core.FormatBRL(t.Amount.Cents))
	}
	fmt.Fprintf(&b, "\nTotal: %s", core.FormatBRL(r.Total.Cents))
	return b.String()
}
