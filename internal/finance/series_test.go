package finance

import (
	"math"
	"reflect"
	"testing"

	"financas/internal/core"
)

func TestMonthlySeries(t *testing.T) {
	got := MonthlySeries(sampleTransactions(), core.Expense)
	want := []MonthlyPoint{
		{Year: 2025, Month: 1, Total: core.Money{Cents: 150000}},
		{Year: 2025, Month: 2, Total: core.Money{Cents: 250000}},
		{Year: 2025, Month: 3, Total: core.Money{Cents: 90000}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCategoryTotalsOrdering(t *testing.T) {
	txs := []core.Transaction{
		{Kind: core.Expense, Category: "Mercado", Amount: core.Money{Cents: 100}, OccurredAt: core.NewDate(2025, 1, 1)},
		{Kind: core.Expense, Category: "Lazer", Amount: core.Money{Cents: 300}, OccurredAt: core.NewDate(2025, 1, 2)},
		{Kind: core.Expense, Category: "Contas", Amount: core.Money{Cents: 300}, OccurredAt: core.NewDate(2025, 1, 3)},
		{Kind: core.Income, Channel: "Pix", Amount: core.Money{Cents: 9999}, OccurredAt: core.NewDate(2025, 1, 4)},
	}
	got := CategoryTotals(txs, core.Expense)
	want := []CategoryTotal{
		{Name: "Contas", Total: core.Money{Cents: 300}}, // tie broken by name
		{Name: "Lazer", Total: core.Money{Cents: 300}},
		{Name: "Mercado", Total: core.Money{Cents: 100}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCategoryTotalsIncomeGroupsByChannel(t *testing.T) {
	txs := []core.Transaction{
		{Kind: core.Income, Channel: "Pix", Amount: core.Money{Cents: 100}, OccurredAt: core.NewDate(2025, 1, 1)},
		{Kind: core.Income, Channel: "Pix", Amount: core.Money{Cents: 50}, OccurredAt: core.NewDate(2025, 1, 2)},
	}
	got := CategoryTotals(txs, core.Income)
	if len(got) != 1 || got[0].Name != "Pix" || got[0].Total.Cents != 150 {
		t.Fatalf("got %+v", got)
	}
}

func TestTopCategories(t *testing.T) {
	txs := []core.Transaction{
		{Kind: core.Expense, Category: "A", Amount: core.Money{Cents: 3}, OccurredAt: core.NewDate(2025, 1, 1)},
		{Kind: core.Expense, Category: "B", Amount: core.Money{Cents: 2}, OccurredAt: core.NewDate(2025, 1, 1)},
		{Kind: core.Expense, Category: "C", Amount: core.Money{Cents: 1}, OccurredAt: core.NewDate(2025, 1, 1)},
	}
	got := TopCategories(txs, core.Expense, 2)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("got %+v", got)
	}
}

func TestAccumulatedBalance(t *testing.T) {
	got := AccumulatedBalance(sampleTransactions())
	// Jan: +500000 -120000 -30000 +700000 = 1050000
	// Feb: +500000 -250000 -> 1300000
	// Mar: -90000 -> 1210000
	want := []BalancePoint{
		{Year: 2025, Month: 1, Balance: core.Money{Cents: 1050000}},
		{Year: 2025, Month: 2, Balance: core.Money{Cents: 1300000}},
		{Year: 2025, Month: 3, Balance: core.Money{Cents: 1210000}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAccumulatedBalanceEmpty(t *testing.T) {
	if got := AccumulatedBalance(nil); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestYearlyTotals(t *testing.T) {
	txs := append(sampleTransactions(),
		tx(1, core.Income, 100000, 2024, 12, 1),
	)
	got := YearlyTotals(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 years, got %+v", got)
	}
	if got[0].Year != 2024 || got[0].Income.Cents != 100000 {
		t.Fatalf("2024 row wrong: %+v", got[0])
	}
	if got[1].Year != 2025 || got[1].Income.Cents != 1700000 || got[1].Expense.Cents != 490000 {
		t.Fatalf("2025 row wrong: %+v", got[1])
	}
}

func TestIncomeExpenseRatio(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.Income, 2000, 2025, 1, 1),
		tx(1, core.Expense, 1000, 2025, 1, 2),
		tx(1, core.Income, 500, 2025, 2, 1), // no expense: ratio 0
	}
	got := IncomeExpenseRatio(txs)
	want := []RatioPoint{
		{Year: 2025, Month: 1, Ratio: 2},
		{Year: 2025, Month: 2, Ratio: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{3, 6, 9, 12}, 3)
	want := []float64{3, 4.5, 6, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMovingAverageDegenerate(t *testing.T) {
	if got := MovingAverage(nil, 3); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	if got := MovingAverage([]float64{1, 2}, 0); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	got := MovingAverage([]float64{1, 2, 3}, 1)
	if !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Fatalf("window 1 must be identity, got %v", got)
	}
}
