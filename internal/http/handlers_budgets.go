package http

import (
	"net/http"

	"pocketbook/internal/auth"
	"pocketbook/internal/core"
)

// pathMonth reads the {month} path segment as "2006-01".
func pathMonth(w http.ResponseWriter, r *http.Request) (core.Date, bool) {
	month, err := parseMonthParam(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return core.Date{}, false
	}
	return month, true
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}

	amount, set, err := s.budgets.Get(r.Context(), userID, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, budgetResponse{
		Month:       month.MonthKey(),
		AmountCents: amount.Cents,
		Amount:      amount.String(),
		Set:         set,
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	amount := core.Money{Cents: cents}
	if err := s.budgets.Set(r.Context(), userID, month, amount); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateDashboards(userID)

	writeJSON(w, http.StatusOK, budgetResponse{
		Month:       month.MonthKey(),
		AmountCents: amount.Cents,
		Amount:      amount.String(),
		Set:         true,
	})
}

func (s *Server) handleClearBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}

	if err := s.budgets.Clear(r.Context(), userID, month); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateDashboards(userID)

	w.WriteHeader(http.StatusNoContent)
}
