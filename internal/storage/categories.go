package storage

import (
	"context"
	"database/sql"
	"fmt"

	"conti/internal/core"
)

const categoryColumns = `id, name, transaction_type, color, icon, parent_id, owner,
	is_active, created_at, updated_at`

func scanCategory(s scanner) (core.Category, error) {
	var (
		c                core.Category
		typ, color       string
		parent           sql.NullInt64
		owner            sql.NullString
		created, updated string
	)
	if err := s.Scan(&c.ID, &c.Name, &typ, &color, &c.Icon, &parent, &owner,
		&c.IsActive, &created, &updated); err != nil {
		return core.Category{}, err
	}
	c.TransactionType = core.TransactionType(typ)
	c.Color = core.CategoryColor(color)
	c.ParentID = int64Ptr(parent)
	c.Owner = owner.String
	c.CreatedAt = parseTimestamp(created)
	c.UpdatedAt = parseTimestamp(updated)
	return c, nil
}

func (q *Queries) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts c. An empty owner stores a default category.
func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (name, transaction_type, color, icon, parent_id, owner,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, string(c.TransactionType), string(c.Color), c.Icon, nullInt64(c.ParentID),
		nullString(c.Owner), c.IsActive, ts, ts)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	c.CreatedAt, c.UpdatedAt = now, now
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, mapError(err))
	}
	return c, nil
}

// ListCategories returns the default categories plus those owned by owner.
func (q *Queries) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	categories, err := q.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE owner IS NULL OR owner = ?
		ORDER BY transaction_type, name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListSubcategories returns the direct children of parentID.
func (q *Queries) ListSubcategories(ctx context.Context, parentID int64) ([]core.Category, error) {
	categories, err := q.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE parent_id = ?
		ORDER BY transaction_type, name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories of %d: %w", parentID, err)
	}
	return categories, nil
}

// CategoryInUse counts the income and expense transactions and the recurring
// templates filed under the category. Transfers are not counted.
func (q *Queries) CategoryInUse(ctx context.Context, id int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM transactions
				WHERE category_id = ? AND transaction_type <> 'transfer') +
			(SELECT COUNT(*) FROM recurring_transactions WHERE category_id = ?)`,
		id, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("category %d usage: %w", id, err)
	}
	return n, nil
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, transaction_type = ?, color = ?, icon = ?, parent_id = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, string(c.TransactionType), string(c.Color), c.Icon, nullInt64(c.ParentID),
		c.IsActive, ts, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	c.UpdatedAt = now
	return c, nil
}

// DeleteCategory removes the category and, through the cascade, its
// subcategories. Referenced categories fail with a conflict.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}
