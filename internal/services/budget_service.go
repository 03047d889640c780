package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"pocketbook/internal/core"
	"pocketbook/internal/storage"
)

// BudgetService stores one spending budget per user per month, keyed
// "budget_YYYYMM" in the budget preference namespace.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

func budgetKey(month core.Date) string {
	return "budget_" + month.Format("200601")
}

func (s *BudgetService) Set(ctx context.Context, userID string, month core.Date, amount core.Money) error {
	if amount.Cents < 0 {
		return core.ErrInvalidAmount
	}
	value := strconv.FormatInt(amount.Cents, 10)
	if err := s.storage.SetPref(ctx, userID, storage.NamespaceBudget, budgetKey(month), value); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// Clear removes the month's budget. Clearing an unset month is a no-op.
func (s *BudgetService) Clear(ctx context.Context, userID string, month core.Date) error {
	if err := s.storage.DeletePref(ctx, userID, storage.NamespaceBudget, budgetKey(month)); err != nil {
		return fmt.Errorf("clear budget: %w", err)
	}
	return nil
}

// Get returns the budget for the month, or ok=false when none was set.
func (s *BudgetService) Get(ctx context.Context, userID string, month core.Date) (core.Money, bool, error) {
	value, err := s.storage.GetPref(ctx, userID, storage.NamespaceBudget, budgetKey(month))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, fmt.Errorf("get budget: %w", err)
	}

	cents, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return core.Money{}, false, fmt.Errorf("parse budget %q: %w", value, err)
	}
	return core.Money{Cents: cents}, true, nil
}
