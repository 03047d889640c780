package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"pocketbook/internal/core"
)

func scanGoal(row interface{ Scan(...any) error }) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := row.Scan(&g.ID, &g.Title, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.Icon, &g.UserID)
	return g, err
}

const goalColumns = `id, title, target_cents, current_cents, icon, user_id`

func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.SavingsGoal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (title, target_cents, current_cents, icon, user_id)
		 VALUES (?, ?, ?, ?, ?)`,
		g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Icon, g.UserID)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("insert goal %q: %w", g.Title, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert goal id: %w", err)
	}

	slog.InfoContext(ctx, "Goal created",
		"id", id, "title", g.Title, "target_cents", g.TargetAmount.Cents, "user_id", g.UserID)
	return id, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID string, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, fmt.Errorf("get goal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// GetGoalByTitle is the rollover idempotence lookup.
func (r *SQLiteRepository) GetGoalByTitle(ctx context.Context, userID, title string) (core.SavingsGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND title = ?`, userID, title))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, fmt.Errorf("get goal %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal by title: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoalsByUser(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, target_cents = ?, current_cents = ?, icon = ?
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Icon, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update goal %d: %w", g.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete goal %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertGoalWithDeposit creates a goal and its offsetting ledger entry in a
// single SQL transaction so the pair can never be half-written. The entry's
// LinkedGoalID is filled in from the new goal id. Returns both assigned ids.
func (r *SQLiteRepository) InsertGoalWithDeposit(ctx context.Context, g core.SavingsGoal, deposit core.Transaction) (goalID, entryID int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin goal insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO goals (title, target_cents, current_cents, icon, user_id)
		 VALUES (?, ?, ?, ?, ?)`,
		g.Title, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Icon, g.UserID)
	if isUniqueViolation(err) {
		return 0, 0, fmt.Errorf("insert goal %q: %w", g.Title, ErrDuplicate)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("insert goal: %w", err)
	}
	goalID, err = res.LastInsertId()
	if err != nil {
		return 0, 0, fmt.Errorf("insert goal id: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (label, amount_cents, description, entry_date, user_id, linked_goal_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		deposit.Label, deposit.Amount.Cents, deposit.Description, deposit.Date.String(),
		deposit.UserID, goalID)
	if err != nil {
		return 0, 0, fmt.Errorf("insert goal deposit: %w", err)
	}
	entryID, err = res.LastInsertId()
	if err != nil {
		return 0, 0, fmt.Errorf("insert goal deposit id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit goal insert: %w", err)
	}

	slog.InfoContext(ctx, "Goal created with deposit",
		"goal_id", goalID, "entry_id", entryID, "title", g.Title, "user_id", g.UserID)
	return goalID, entryID, nil
}

// UpdateGoalWithEntry updates a goal's current amount and records the
// offsetting adjustment entry atomically.
func (r *SQLiteRepository) UpdateGoalWithEntry(ctx context.Context, g core.SavingsGoal, adjustment core.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin goal update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE goals SET current_cents = ? WHERE id = ? AND user_id = ?`,
		g.CurrentAmount.Cents, g.ID, g.UserID)
	if err != nil {
		return 0, fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("update goal %d: %w", g.ID, ErrNotFound)
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (label, amount_cents, description, entry_date, user_id, linked_goal_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		adjustment.Label, adjustment.Amount.Cents, adjustment.Description,
		adjustment.Date.String(), adjustment.UserID, g.ID)
	if err != nil {
		return 0, fmt.Errorf("insert adjustment: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert adjustment id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit goal update: %w", err)
	}
	return entryID, nil
}

// DeleteGoalWithRefund removes a goal and records the refund of its current
// amount back into the ledger in one transaction. When refund is nil (goal
// held no money) only the delete happens.
func (r *SQLiteRepository) DeleteGoalWithRefund(ctx context.Context, userID string, id int64, refund *core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal delete: %w", err)
	}
	defer tx.Rollback()

	if refund != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (label, amount_cents, description, entry_date, user_id, linked_goal_id)
			 VALUES (?, ?, ?, ?, ?, 0)`,
			refund.Label, refund.Amount.Cents, refund.Description,
			refund.Date.String(), refund.UserID)
		if err != nil {
			return fmt.Errorf("insert refund: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete goal %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goal delete: %w", err)
	}

	slog.InfoContext(ctx, "Goal deleted", "id", id, "user_id", userID, "refunded", refund != nil)
	return nil
}
