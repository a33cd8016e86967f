package finance

import (
	"fmt"
	"sort"

	"financas/internal/core"
)

type (
	// MonthlyPoint is one month's total for a single kind.
	MonthlyPoint struct {
		Year  int
		Month int
		Total core.Money
	}

	// CategoryTotal aggregates one category (expenses) or one income
	// source over the whole input.
	CategoryTotal struct {
		Name  string
		Total core.Money
	}

	// BalancePoint is the running net balance at the end of a month.
	BalancePoint struct {
		Year    int
		Month   int
		Balance core.Money
	}

	// YearlyTotal pairs income and expense totals for one year.
	YearlyTotal struct {
		Year    int
		Income  core.Money
		Expense core.Money
	}

	// RatioPoint is the income/expense ratio for one month. Ratio is 0
	// when the month has no expense.
	RatioPoint struct {
		Year  int
		Month int
		Ratio float64
	}
)

// MonthLabel renders a (year, month) pair the way the dashboard's
// x-axes expect it.
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthlySeries totals transactions of one kind per calendar month,
// in chronological order.
func MonthlySeries(txs []core.Transaction, kind core.TransactionKind) []MonthlyPoint {
	byMonth := make(map[int]int64)
	for _, tx := range txs {
		if tx.Kind != kind {
			continue
		}
		byMonth[tx.OccurredAt.Year()*100+tx.OccurredAt.Month()] += tx.Amount.Cents
	}
	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]MonthlyPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthlyPoint{Year: k / 100, Month: k % 100, Total: core.Money{Cents: byMonth[k]}})
	}
	return out
}

// CategoryTotals groups expenses by category and incomes by source,
// largest first. Ties break on name so the output is deterministic.
func CategoryTotals(txs []core.Transaction, kind core.TransactionKind) []CategoryTotal {
	byName := make(map[string]int64)
	for _, tx := range txs {
		if tx.Kind != kind {
			continue
		}
		name := tx.Category
		if kind == core.Income {
			name = tx.Channel
		}
		byName[name] += tx.Amount.Cents
	}
	out := make([]CategoryTotal, 0, len(byName))
	for name, cents := range byName {
		out = append(out, CategoryTotal{Name: name, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopCategories returns the n largest entries of CategoryTotals.
func TopCategories(txs []core.Transaction, kind core.TransactionKind, n int) []CategoryTotal {
	all := CategoryTotals(txs, kind)
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// AccumulatedBalance walks all transactions in date order and samples
// the running net balance at the end of each month.
func AccumulatedBalance(txs []core.Transaction) []BalancePoint {
	if len(txs) == 0 {
		return nil
	}
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].OccurredAt.Equal(sorted[j].OccurredAt.Time) {
			return sorted[i].OccurredAt.Before(sorted[j].OccurredAt.Time)
		}
		return sorted[i].ID < sorted[j].ID
	})

	byMonth := make(map[int]int64)
	var keys []int
	var balance int64
	for _, tx := range sorted {
		balance += tx.Signed()
		key := tx.OccurredAt.Year()*100 + tx.OccurredAt.Month()
		if _, seen := byMonth[key]; !seen {
			keys = append(keys, key)
		}
		byMonth[key] = balance // last value in the month wins
	}

	out := make([]BalancePoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, BalancePoint{Year: k / 100, Month: k % 100, Balance: core.Money{Cents: byMonth[k]}})
	}
	return out
}

// YearlyTotals aggregates income and expense per calendar year.
func YearlyTotals(txs []core.Transaction) []YearlyTotal {
	byYear := make(map[int]*YearlyTotal)
	for _, tx := range txs {
		y := tx.OccurredAt.Year()
		t, ok := byYear[y]
		if !ok {
			t = &YearlyTotal{Year: y}
			byYear[y] = t
		}
		if tx.Kind == core.Income {
			t.Income.Cents += tx.Amount.Cents
		} else {
			t.Expense.Cents += tx.Amount.Cents
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]YearlyTotal, 0, len(years))
	for _, y := range years {
		out = append(out, *byYear[y])
	}
	return out
}

// IncomeExpenseRatio computes the per-month income/expense ratio over
// the union of months present in either kind.
func IncomeExpenseRatio(txs []core.Transaction) []RatioPoint {
	income := make(map[int]int64)
	expense := make(map[int]int64)
	seen := make(map[int]bool)
	for _, tx := range txs {
		key := tx.OccurredAt.Year()*100 + tx.OccurredAt.Month()
		seen[key] = true
		if tx.Kind == core.Income {
			income[key] += tx.Amount.Cents
		} else {
			expense[key] += tx.Amount.Cents
		}
	}
	keys := make([]int, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]RatioPoint, 0, len(keys))
	for _, k := range keys {
		p := RatioPoint{Year: k / 100, Month: k % 100}
		if e := expense[k]; e > 0 {
			p.Ratio = float64(income[k]) / float64(e)
		}
		out = append(out, p)
	}
	return out
}

// MovingAverage computes a trailing mean over the series. Leading
// positions average whatever is available, so the output always has
// the input's length.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}
