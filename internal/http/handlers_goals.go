package http

import (
	"net/http"
	"strconv"
	"strings"

	"pocketbook/internal/auth"
	"pocketbook/internal/core"
)

// parseCurrentAmount is like ParseDecimalToCents but also accepts zero,
// which drains the goal.
func parseCurrentAmount(s string) (int64, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err == nil {
		return cents, nil
	}
	trimmed := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if v, ferr := strconv.ParseFloat(trimmed, 64); ferr == nil && v == 0 {
		return 0, nil
	}
	return 0, err
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	targetCents, err := core.ParseDecimalToCents(req.TargetAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	g := core.SavingsGoal{
		Title:        req.Title,
		TargetAmount: core.Money{Cents: targetCents},
		Icon:         req.Icon,
		UserID:       userID,
	}
	id, err := s.goals.Create(r.Context(), g)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	g.ID = id

	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	goals, err := s.goals.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	g, err := s.goals.Get(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

// handleAdjustGoal sets the goal's saved amount. The ledger entry the
// service synthesizes makes this visible on the dashboards, so caches are
// invalidated like any other write.
func (s *Server) handleAdjustGoal(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req goalAdjustRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cents, err := parseCurrentAmount(req.CurrentAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	g, err := s.goals.Adjust(r.Context(), userID, id, core.Money{Cents: cents})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateDashboards(userID)

	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	targetCents, err := core.ParseDecimalToCents(req.TargetAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	g, err := s.goals.Update(r.Context(), userID, id, req.Title, core.Money{Cents: targetCents}, req.Icon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.goals.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateDashboards(userID)

	w.WriteHeader(http.StatusNoContent)
}
