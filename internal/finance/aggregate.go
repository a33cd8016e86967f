// Package finance is the aggregation engine behind the dashboard and
// the bot's reports: pure transformations over transaction slices,
// plus the investment and goal simulators. Nothing here touches the
// database or keeps state between calls.
package finance

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"financas/internal/core"
)

var (
	// ErrInvalidFilter marks a contradictory date range.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidParameter marks simulation inputs outside their domain.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Filter narrows a transaction set before aggregation. The zero value
// matches everything: UserID 0 means all users, zero From/To mean an
// unbounded range.
type Filter struct {
	UserID int64
	From   time.Time
	To     time.Time
}

// MonthlySummary is the aggregated result for one calendar month.
// UserID is 0 when the summary spans all users.
type MonthlySummary struct {
	UserID       int64
	Year         int
	Month        int
	TotalIncome  core.Money
	TotalExpense core.Money
	Net          core.Money
}

func (f Filter) validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: date range end %s precedes start %s",
			ErrInvalidFilter, f.To.Format("2006-01-02"), f.From.Format("2006-01-02"))
	}
	return nil
}

func (f Filter) matches(tx core.Transaction) bool {
	if f.UserID != 0 && tx.UserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && tx.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.OccurredAt.After(f.To) {
		return false
	}
	return true
}

// Summarize groups the filtered transactions by calendar month and
// sums income and expense separately. The result is chronologically
// ordered with one entry per (year, month).
func Summarize(txs []core.Transaction, f Filter) ([]MonthlySummary, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	byMonth := make(map[int]*MonthlySummary)
	for _, tx := range txs {
		if !f.matches(tx) {
			continue
		}
		key := tx.OccurredAt.Year()*100 + tx.OccurredAt.Month()
		s, ok := byMonth[key]
		if !ok {
			s = &MonthlySummary{
				UserID: f.UserID,
				Year:   tx.OccurredAt.Year(),
				Month:  tx.OccurredAt.Month(),
			}
			byMonth[key] = s
		}
		switch tx.Kind {
		case core.Income:
			s.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			s.TotalExpense.Cents += tx.Amount.Cents
		}
	}

	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]MonthlySummary, 0, len(keys))
	for _, k := range keys {
		s := *byMonth[k]
		s.Net.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents
		out = append(out, s)
	}
	return out, nil
}

// Compare partitions the transactions by user and summarizes each
// partition. Users without transactions map to an empty sequence.
func Compare(txs []core.Transaction, userIDs []int64) (map[int64][]MonthlySummary, error) {
	out := make(map[int64][]MonthlySummary, len(userIDs))
	for _, id := range userIDs {
		if id == 0 {
			return nil, fmt.Errorf("%w: user id 0 is reserved for the unfiltered view", ErrInvalidFilter)
		}
		s, err := Summarize(txs, Filter{UserID: id})
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}
