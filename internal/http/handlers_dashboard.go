package http

import (
	"net/http"
	"strconv"
	"strings"

	"financas/internal/core"
	"financas/internal/finance"
	"financas/internal/storage"
)

type userJSON struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.data.ListUsers(r.Context())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON{ID: u.ID, FirstName: u.FirstName, Username: u.Username})
	}
	writeJSON(w, http.StatusOK, out)
}

type summaryJSON struct {
	UserID            int64   `json:"user_id"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	Label             string  `json:"label"`
	TotalIncomeCents  int64   `json:"total_income_cents"`
	TotalExpenseCents int64   `json:"total_expense_cents"`
	NetCents          int64   `json:"net_cents"`
	SpendPct          float64 `json:"spend_pct"`
}

func summariesJSON(summaries []finance.MonthlySummary) []summaryJSON {
	out := make([]summaryJSON, 0, len(summaries))
	for _, m := range summaries {
		j := summaryJSON{
			UserID:            m.UserID,
			Year:              m.Year,
			Month:             m.Month,
			Label:             finance.MonthLabel(m.Year, m.Month),
			TotalIncomeCents:  m.TotalIncome.Cents,
			TotalExpenseCents: m.TotalExpense.Cents,
			NetCents:          m.Net.Cents,
		}
		if m.TotalIncome.Cents > 0 {
			j.SpendPct = float64(m.TotalExpense.Cents) / float64(m.TotalIncome.Cents) * 100
		}
		out = append(out, j)
	}
	return out
}

// handleSummary returns per-month income/expense/net totals, freshly
// computed from the transaction set.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	txs, err := s.getTransactions(r.Context(), p)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	summaries, err := finance.Summarize(txs, finance.Filter{UserID: p.UserID, From: p.From, To: p.To})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summariesJSON(summaries))
}

type monthlyJSON struct {
	Label      string  `json:"label"`
	TotalCents int64   `json:"total_cents"`
	MovingAvg  float64 `json:"moving_avg_cents"`
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	p, err := listParams(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	txs, err := s.getTransactions(r.Context(), p)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	points := finance.MonthlySeries(txs, kind)

	// Trailing 3-month mean alongside the raw series.
	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = float64(pt.Total.Cents)
	}
	avg := finance.MovingAverage(values, 3)

	out := make([]monthlyJSON, 0, len(points))
	for i, pt := range points {
		out = append(out, monthlyJSON{
			Label:      finance.MonthLabel(pt.Year, pt.Month),
			TotalCents: pt.Total.Cents,
			MovingAvg:  avg[i],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryJSON struct {
	Name       string `json:"name"`
	TotalCents int64  `json:"total_cents"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	p, err := listParams(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	txs, err := s.getTransactions(r.Context(), p)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	totals := finance.TopCategories(txs, kind, queryInt(r, "top", 0))
	out := make([]categoryJSON, 0, len(totals))
	for _, ct := range totals {
		out = append(out, categoryJSON{Name: ct.Name, TotalCents: ct.Total.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}

type balanceJSON struct {
	Label        string `json:"label"`
	BalanceCents int64  `json:"balance_cents"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	txs, err := s.getTransactions(r.Context(), p)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	points := finance.AccumulatedBalance(txs)
	out := make([]balanceJSON, 0, len(points))
	for _, pt := range points {
		out = append(out, balanceJSON{Label: finance.MonthLabel(pt.Year, pt.Month), BalanceCents: pt.Balance.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}

type yearlyJSON struct {
	Year         int   `json:"year"`
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	txs, err := s.getTransactions(r.Context(), p)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	totals := finance.YearlyTotals(txs)
	out := make([]yearlyJSON, 0, len(totals))
	for _, yt := range totals {
		out = append(out, yearlyJSON{Year: yt.Year, IncomeCents: yt.Income.Cents, ExpenseCents: yt.Expense.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}

type ratioJSON struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
}

func (s *Server) handleRatio(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	txs, err := s.getTransactions(r.Context(), p)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	points := finance.IncomeExpenseRatio(txs)
	out := make([]ratioJSON, 0, len(points))
	for _, pt := range points {
		out = append(out, ratioJSON{Label: finance.MonthLabel(pt.Year, pt.Month), Ratio: pt.Ratio})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCompare summarizes each requested user separately, so the
// dashboard can chart users side by side.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("users"))
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string][]summaryJSON{})
		return
	}

	var userIDs []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "invalid users parameter"})
			return
		}
		userIDs = append(userIDs, id)
	}

	txs, err := s.getTransactions(r.Context(), storage.ListParams{})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	byUser, err := finance.Compare(txs, userIDs)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	out := make(map[string][]summaryJSON, len(byUser))
	for id, summaries := range byUser {
		out[strconv.FormatInt(id, 10)] = summariesJSON(summaries)
	}
	writeJSON(w, http.StatusOK, out)
}

type rollupJSON struct {
	UserID     int64  `json:"user_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Kind       string `json:"kind"`
	TotalCents int64  `json:"total_cents"`
	TxCount    int64  `json:"tx_count"`
}

func (s *Server) handleRollups(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if v := strings.TrimSpace(r.URL.Query().Get("user")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "invalid user parameter"})
			return
		}
		userID = id
	}

	rollups, err := s.data.GetRollups(r.Context(), userID)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)

	out := make([]rollupJSON, 0, len(rollups))
	for _, ru := range rollups {
		if year != 0 && ru.Year != year {
			continue
		}
		if month != 0 && ru.Month != month {
			continue
		}
		out = append(out, rollupJSON{
			UserID:     ru.UserID,
			Year:       ru.Year,
			Month:      ru.Month,
			Kind:       string(ru.Kind),
			TotalCents: ru.TotalCents,
			TxCount:    ru.TxCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func queryKind(r *http.Request) (core.TransactionKind, error) {
	kind := core.TransactionKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = core.Expense
	}
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}
