package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"pocketbook/internal/core"
)

const transactionColumns = `id, label, amount_cents, description, entry_date, user_id, linked_goal_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t       core.Transaction
		rawDate string
	)
	if err := row.Scan(&t.ID, &t.Label, &t.Amount.Cents, &t.Description,
		&rawDate, &t.UserID, &t.LinkedGoalID); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored entry_date %q: %w", rawDate, err)
	}
	t.Date = d
	return t, nil
}

// InsertTransaction writes a new ledger entry and returns the store-assigned
// id. The returned id is never zero.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (label, amount_cents, description, entry_date, user_id, linked_goal_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Label, t.Amount.Cents, t.Description, t.Date.String(), t.UserID, t.LinkedGoalID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"label", t.Label,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String(),
		"user_id", t.UserID)

	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID string, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET label = ?, amount_cents = ?, description = ?, entry_date = ?, linked_goal_id = ?
		 WHERE id = ? AND user_id = ?`,
		t.Label, t.Amount.Cents, t.Description, t.Date.String(), t.LinkedGoalID, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update transaction %d: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}

// ListTransactionsByUser returns the user's full ledger, newest first.
func (r *SQLiteRepository) ListTransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	entries, err := r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? ORDER BY entry_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by user: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) ListTransactionsByDate(ctx context.Context, userID string, date core.Date) ([]core.Transaction, error) {
	entries, err := r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND entry_date = ? ORDER BY id DESC`, userID, date.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions by date: %w", err)
	}
	return entries, nil
}

// ListTransactionsByRange returns entries with from <= date <= to. Weeks and
// months are both served through this query.
func (r *SQLiteRepository) ListTransactionsByRange(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	entries, err := r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND entry_date >= ? AND entry_date <= ?
		 ORDER BY entry_date DESC, id DESC`, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions by range: %w", err)
	}
	return entries, nil
}

// ListTransactionsByMonth returns all entries of one calendar month.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, userID string, anyDay core.Date) ([]core.Transaction, error) {
	return r.ListTransactionsByRange(ctx, userID, anyDay.FirstOfMonth(), anyDay.LastOfMonth())
}

// SumTransactionsByUser returns the running balance of the whole ledger.
func (r *SQLiteRepository) SumTransactionsByUser(ctx context.Context, userID string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE user_id = ?`, userID).
		Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// ListUnexported returns up to limit entries that have not been appended to
// the export sheet yet, oldest first.
func (r *SQLiteRepository) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	entries, err := r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE exported_at IS NULL ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported: %w", err)
	}
	return entries, nil
}

// IsExported reports whether the entry already landed on the export sheet,
// so redelivered messages do not append duplicate rows.
func (r *SQLiteRepository) IsExported(ctx context.Context, id int64) (bool, error) {
	var exported bool
	err := r.db.QueryRowContext(ctx,
		`SELECT exported_at IS NOT NULL FROM transactions WHERE id = ?`, id).
		Scan(&exported)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("is exported %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("is exported: %w", err)
	}
	return exported, nil
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark exported %d: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction marked exported", "id", id)
	return nil
}
