package http

import (
	"net/http"
	"time"

	"pocketbook/internal/auth"
	"pocketbook/internal/core"
)

// handleDashboardSummary returns the month totals plus budget remaining.
// The payload is cached per user and month until the next ledger write.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month, ok := monthOrCurrent(w, r)
	if !ok {
		return
	}

	cacheKey := userID + ":summary:" + month.MonthKey()
	if cached, hit := s.summaryCache.Get(cacheKey); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	entries, err := s.storage.ListTransactionsByMonth(r.Context(), userID, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	sum := core.Summarize(entries)

	budget, budgetSet, err := s.budgets.Get(r.Context(), userID, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	// all-time balance across every month, not just the one on screen
	balance, err := s.storage.SumTransactionsByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := summaryResponse{
		Month:        month.MonthKey(),
		IncomeCents:  sum.Income.Cents,
		ExpenseCents: sum.Expense.Cents,
		NetCents:     sum.Net.Cents,
		Income:       sum.Income.String(),
		Expense:      sum.Expense.String(),
		Net:          sum.Net.String(),
		BalanceCents: balance.Cents,
		Balance:      balance.String(),
		BudgetSet:    budgetSet,
	}
	if budgetSet {
		resp.BudgetCents = budget.Cents
		resp.RemainingCents = budget.Cents - sum.Expense.Cents
	}

	s.summaryCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleDashboardBreakdown returns the per-category pie for one month.
// ?kind=income|expense selects the chart, defaulting to expense.
func (s *Server) handleDashboardBreakdown(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month, ok := monthOrCurrent(w, r)
	if !ok {
		return
	}

	kind := core.CategoryExpense
	if q := r.URL.Query().Get("kind"); q != "" {
		var err error
		kind, err = parseEntryType(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid kind, want income or expense")
			return
		}
	}

	cacheKey := userID + ":breakdown:" + month.MonthKey() + ":" + string(kind)
	if cached, hit := s.breakdownCache.Get(cacheKey); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	entries, err := s.storage.ListTransactionsByMonth(r.Context(), userID, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	slices := toBreakdownSlices(core.Breakdown(entries, kind))
	s.breakdownCache.Set(cacheKey, slices)
	writeJSON(w, http.StatusOK, slices)
}

// handleDashboardDay lists a single day's entries with totals. ?date=
// defaults to today.
func (s *Server) handleDashboardDay(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	day := core.DateOf(time.Now())
	if q := r.URL.Query().Get("date"); q != "" {
		var err error
		day, err = core.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	entries, err := s.storage.ListTransactionsByDate(r.Context(), userID, day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRangeResponse(day, day, entries))
}

// handleDashboardWeek lists one ISO week's entries with totals.
func (s *Server) handleDashboardWeek(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	year, week, ok := parseYearWeek(w, r)
	if !ok {
		return
	}

	from, to := core.WeekRange(year, week)
	entries, err := s.storage.ListTransactionsByRange(r.Context(), userID, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRangeResponse(from, to, entries))
}

// handleDashboardMonth lists one month's entries with totals.
func (s *Server) handleDashboardMonth(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month, ok := monthOrCurrent(w, r)
	if !ok {
		return
	}

	entries, err := s.storage.ListTransactionsByMonth(r.Context(), userID, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRangeResponse(month.FirstOfMonth(), month.LastOfMonth(), entries))
}
