package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pocketbook/internal/core"
)

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, user_id) VALUES (?, ?, ?)`,
		c.Name, string(c.Type), c.UserID)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("insert category %q: %w", c.Name, ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert category id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) listCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ, &c.UserID); err != nil {
			return nil, err
		}
		c.Type = core.CategoryType(typ)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) ListCategoriesByUser(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := r.listCategories(ctx,
		`SELECT id, name, type, user_id FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) ListCategoriesByType(ctx context.Context, userID string, typ core.CategoryType) ([]core.Category, error) {
	cats, err := r.listCategories(ctx,
		`SELECT id, name, type, user_id FROM categories
		 WHERE user_id = ? AND type = ? ORDER BY name`, userID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("list categories by type: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, userID string, typ core.CategoryType, name string) (core.Category, error) {
	var c core.Category
	var t string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, user_id FROM categories
		 WHERE user_id = ? AND type = ? AND name = ?`, userID, string(typ), name).
		Scan(&c.ID, &c.Name, &t, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.CategoryType(t)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ? WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Type), c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update category %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete category %d: %w", id, ErrNotFound)
	}
	return nil
}
