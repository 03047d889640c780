package http

import (
	"strings"

	"pocketbook/internal/core"
)

func parseEntryType(s string) (core.CategoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return core.CategoryIncome, nil
	case "expense":
		return core.CategoryExpense, nil
	}
	return "", core.ErrInvalidType
}

// Amounts come in as positive decimal strings plus an entry type, and go
// out both as signed cents and as a formatted string.

type transactionRequest struct {
	Label       string `json:"label"`
	Amount      string `json:"amount"`
	Type        string `json:"type"` // "income" or "expense"
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

func (req transactionRequest) toTransaction(userID string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := parseEntryType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	if typ == core.CategoryExpense {
		cents = -cents
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		Label:       req.Label,
		Amount:      core.Money{Cents: cents},
		Description: req.Description,
		Date:        date,
		UserID:      userID,
	}, nil
}

type transactionResponse struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	AmountCents  int64  `json:"amount_cents"`
	Amount       string `json:"amount"`
	Type         string `json:"type"`
	Description  string `json:"description,omitempty"`
	Date         string `json:"date"`
	LinkedGoalID int64  `json:"linked_goal_id,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	typ := core.CategoryExpense
	if t.IsIncome() {
		typ = core.CategoryIncome
	}
	return transactionResponse{
		ID:           t.ID,
		Label:        t.Label,
		AmountCents:  t.Amount.Cents,
		Amount:       t.Amount.String(),
		Type:         string(typ),
		Description:  t.Description,
		Date:         t.Date.String(),
		LinkedGoalID: t.LinkedGoalID,
	}
}

func toTransactionResponses(entries []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(entries))
	for _, t := range entries {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type)}
}

type goalRequest struct {
	Title        string `json:"title"`
	TargetAmount string `json:"target_amount"`
	Icon         string `json:"icon,omitempty"`
}

type goalAdjustRequest struct {
	CurrentAmount string `json:"current_amount"`
}

type goalResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	TargetCents   int64   `json:"target_cents"`
	CurrentCents  int64   `json:"current_cents"`
	TargetAmount  string  `json:"target_amount"`
	CurrentAmount string  `json:"current_amount"`
	Progress      float64 `json:"progress"`
	Icon          string  `json:"icon,omitempty"`
}

func toGoalResponse(g core.SavingsGoal) goalResponse {
	return goalResponse{
		ID:            g.ID,
		Title:         g.Title,
		TargetCents:   g.TargetAmount.Cents,
		CurrentCents:  g.CurrentAmount.Cents,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		Progress:      g.Progress(),
		Icon:          g.Icon,
	}
}

type budgetRequest struct {
	Amount string `json:"amount"`
}

type budgetResponse struct {
	Month       string `json:"month"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Set         bool   `json:"set"`
}

type summaryResponse struct {
	Month          string `json:"month"`
	IncomeCents    int64  `json:"income_cents"`
	ExpenseCents   int64  `json:"expense_cents"`
	NetCents       int64  `json:"net_cents"`
	Income         string `json:"income"`
	Expense        string `json:"expense"`
	Net            string `json:"net"`
	BalanceCents   int64  `json:"balance_cents"`
	Balance        string `json:"balance"`
	BudgetCents    int64  `json:"budget_cents,omitempty"`
	RemainingCents int64  `json:"remaining_cents,omitempty"`
	BudgetSet      bool   `json:"budget_set"`
}

type breakdownSlice struct {
	Name        string  `json:"name"`
	AmountCents int64   `json:"amount_cents"`
	Amount      string  `json:"amount"`
	Percent     float64 `json:"percent"`
}

func toBreakdownSlices(slices []core.CategorySlice) []breakdownSlice {
	out := make([]breakdownSlice, 0, len(slices))
	for _, s := range slices {
		out = append(out, breakdownSlice{
			Name:        s.Name,
			AmountCents: s.Amount.Cents,
			Amount:      s.Amount.String(),
			Percent:     s.Percent,
		})
	}
	return out
}

type rangeResponse struct {
	From    string                `json:"from"`
	To      string                `json:"to"`
	Entries []transactionResponse `json:"entries"`
	Income  string                `json:"income"`
	Expense string                `json:"expense"`
	Net     string                `json:"net"`
}

func toRangeResponse(from, to core.Date, entries []core.Transaction) rangeResponse {
	sum := core.Summarize(entries)
	return rangeResponse{
		From:    from.String(),
		To:      to.String(),
		Entries: toTransactionResponses(entries),
		Income:  sum.Income.String(),
		Expense: sum.Expense.String(),
		Net:     sum.Net.String(),
	}
}
