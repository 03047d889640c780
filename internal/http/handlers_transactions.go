package http

import (
	"net/http"
	"strconv"

	"pocketbook/internal/auth"
	"pocketbook/internal/core"
)

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := req.toTransaction(userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.ledger.Add(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	t.ID = id
	s.invalidateDashboards(userID)

	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// handleListTransactions serves /transactions with optional ?date=,
// ?month= (YYYY-MM) or ?year=&week= filters.
// Without a filter it returns the user's full ledger, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()

	var (
		entries []core.Transaction
		err     error
	)
	switch {
	case q.Get("date") != "":
		var date core.Date
		date, err = core.ParseDate(q.Get("date"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		entries, err = s.storage.ListTransactionsByDate(r.Context(), userID, date)
	case q.Get("month") != "":
		var anyDay core.Date
		anyDay, err = parseMonthParam(q.Get("month"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		entries, err = s.storage.ListTransactionsByMonth(r.Context(), userID, anyDay)
	case q.Get("week") != "":
		year, week, ok := parseYearWeek(w, r)
		if !ok {
			return
		}
		from, to := core.WeekRange(year, week)
		entries, err = s.storage.ListTransactionsByRange(r.Context(), userID, from, to)
	default:
		entries, err = s.storage.ListTransactionsByUser(r.Context(), userID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(entries))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := s.storage.GetTransaction(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := req.toTransaction(userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	t.ID = id

	updated, err := s.ledger.Update(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateDashboards(userID)

	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateDashboards(userID)

	w.WriteHeader(http.StatusNoContent)
}
