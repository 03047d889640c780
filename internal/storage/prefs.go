package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Preference namespaces. Budgets live under "budget" keyed by month,
// rollover bookkeeping under "rollover".
const (
	NamespaceBudget   = "budget"
	NamespaceRollover = "rollover"
)

func (r *SQLiteRepository) GetPref(ctx context.Context, userID, namespace, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE user_id = ? AND namespace = ? AND key = ?`,
		userID, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("pref %s/%s: %w", namespace, key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get pref: %w", err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetPref(ctx context.Context, userID, namespace, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO prefs (user_id, namespace, key, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, namespace, key) DO UPDATE SET value = excluded.value`,
		userID, namespace, key, value)
	if err != nil {
		return fmt.Errorf("set pref %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (r *SQLiteRepository) DeletePref(ctx context.Context, userID, namespace, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM prefs WHERE user_id = ? AND namespace = ? AND key = ?`,
		userID, namespace, key)
	if err != nil {
		return fmt.Errorf("delete pref %s/%s: %w", namespace, key, err)
	}
	return nil
}
