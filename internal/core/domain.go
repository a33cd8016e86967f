package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

type (
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is a Telegram account known to the bot. ID is the Telegram chat id.
	User struct {
		ID        int64
		FirstName string
		Username  string
		CreatedAt time.Time
	}

	// Transaction is a single recorded income or expense event.
	// Channel holds the income source for incomes and the payment
	// method for expenses.
	Transaction struct {
		ID          int64
		UserID      int64
		Kind        TransactionKind
		Description string
		Category    string
		Channel     string
		Amount      Money
		OccurredAt  Date
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidChannel   = errors.New("invalid channel")
	ErrFutureDate       = errors.New("future date not allowed")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// Fixed taxonomies, matching the bot's reply keyboards.
var (
	IncomeCategories = []string{
		"Salário", "Investimentos", "Freelance", "Vendas",
		"Aluguéis", "Dividendos", "Renda Extra",
	}
	ExpenseCategories = []string{
		"Alimentação", "Moradia", "Transporte", "Saúde",
		"Lazer", "Educação", "Cartão de Crédito",
	}
	IncomeSources = []string{
		"Principal", "Extra", "Investimento", "Bônus", "Outras",
	}
	PaymentMethods = []string{
		"Cartão Crédito", "Cartão Débito", "Dinheiro",
		"PIX", "Boleto", "Transferência",
	}
)

// MonthNames holds Portuguese month names, index 0 = Janeiro.
var MonthNames = []string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthNumber maps a Portuguese month name to 1-12.
func MonthNumber(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, n := range MonthNames {
		if strings.EqualFold(n, name) {
			return i + 1, true
		}
	}
	return 0, false
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int { return d.Time.Year() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Categories returns the category keyboard for the kind.
func (k TransactionKind) Categories() []string {
	if k == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// Channels returns the income sources or payment methods for the kind.
func (k TransactionKind) Channels() []string {
	if k == Income {
		return IncomeSources
	}
	return PaymentMethods
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Signed returns the amount in cents with the kind's sign applied:
// positive for income, negative for expense.
func (t Transaction) Signed() int64 {
	if t.Kind == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

// Validate checks the transaction against a reference "now": the
// occurrence date must not be in the future relative to it.
func (t Transaction) Validate(now time.Time) error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if !contains(t.Kind.Categories(), t.Category) {
		return ErrInvalidCategory
	}
	if !contains(t.Kind.Channels(), t.Channel) {
		return ErrInvalidChannel
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.OccurredAt.Validate(); err != nil {
		return err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t.OccurredAt.After(today) {
		return ErrFutureDate
	}
	return nil
}
