package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pocketbook/internal/core"
	"pocketbook/internal/storage"
)

// Labels for the ledger entries synthesized around goal movements.
const (
	labelGoalDeposit    = "Goal Deposit"
	labelGoalWithdrawal = "Goal Withdrawal"
	labelGoalRefund     = "Goal Refund"
)

// GoalService manages savings goals and keeps the ledger consistent with
// them: money moved into a goal leaves the ledger as a negative entry,
// money moved out or refunded comes back as a positive one.
type GoalService struct {
	storage *storage.SQLiteRepository
}

func NewGoalService(storage *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: storage}
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.InsertGoal(ctx, g)
	if err != nil {
		return 0, fmt.Errorf("create goal: %w", err)
	}
	return id, nil
}

func (s *GoalService) Get(ctx context.Context, userID string, id int64) (core.SavingsGoal, error) {
	return s.storage.GetGoal(ctx, userID, id)
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	return s.storage.ListGoalsByUser(ctx, userID)
}

// Update renames the goal or moves its target. The saved amount is kept
// as is, so lowering the target below it is rejected.
func (s *GoalService) Update(ctx context.Context, userID string, id int64, title string, target core.Money, icon string) (core.SavingsGoal, error) {
	g, err := s.storage.GetGoal(ctx, userID, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	g.Title = title
	g.TargetAmount = target
	g.Icon = icon
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

// Adjust sets a goal's current amount and records the difference as an
// offsetting ledger entry. Amounts above the target or below zero are
// rejected before anything is written. A zero delta writes nothing.
func (s *GoalService) Adjust(ctx context.Context, userID string, id int64, newCurrent core.Money) (core.SavingsGoal, error) {
	if newCurrent.Cents < 0 {
		return core.SavingsGoal{}, core.ErrInvalidAmount
	}

	g, err := s.storage.GetGoal(ctx, userID, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	if newCurrent.Cents > g.TargetAmount.Cents {
		return core.SavingsGoal{}, core.ErrAmountOverTarget
	}

	delta := newCurrent.Cents - g.CurrentAmount.Cents
	if delta == 0 {
		return g, nil
	}

	g.CurrentAmount = newCurrent

	// A deposit moves money out of the ledger, a withdrawal back in.
	entry := core.Transaction{
		Label:        labelGoalDeposit,
		Amount:       core.Money{Cents: -delta},
		Description:  g.Title,
		Date:         core.DateOf(time.Now()),
		UserID:       userID,
		LinkedGoalID: id,
	}
	if delta < 0 {
		entry.Label = labelGoalWithdrawal
	}

	entryID, err := s.storage.UpdateGoalWithEntry(ctx, g, entry)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("adjust goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal adjusted",
		"id", id,
		"current_cents", newCurrent.Cents,
		"delta_cents", delta,
		"entry_id", entryID)
	return g, nil
}

// Delete removes a goal. Whatever it held is refunded to the ledger as a
// positive entry so the balance stays correct.
func (s *GoalService) Delete(ctx context.Context, userID string, id int64) error {
	g, err := s.storage.GetGoal(ctx, userID, id)
	if err != nil {
		return err
	}

	var refund *core.Transaction
	if g.CurrentAmount.Cents > 0 {
		refund = &core.Transaction{
			Label:       labelGoalRefund,
			Amount:      g.CurrentAmount,
			Description: g.Title,
			Date:        core.DateOf(time.Now()),
			UserID:      userID,
		}
	}

	if err := s.storage.DeleteGoalWithRefund(ctx, userID, id, refund); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
