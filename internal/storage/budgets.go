package storage

import (
	"context"
	"database/sql"
	"fmt"

	"conti/internal/core"
)

const budgetColumns = `id, owner, category_id, amount_cents, period, year, month,
	is_active, created_at, updated_at`

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b                core.Budget
		amount           int64
		period           string
		month            sql.NullInt64
		created, updated string
	)
	if err := s.Scan(&b.ID, &b.Owner, &b.CategoryID, &amount, &period, &b.Year, &month,
		&b.IsActive, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	b.Amount = core.NewMoneyFromCents(amount)
	b.Period = core.BudgetPeriod(period)
	b.Month = intPtr(month)
	b.CreatedAt = parseTimestamp(created)
	b.UpdatedAt = parseTimestamp(updated)
	return b, nil
}

func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (owner, category_id, amount_cents, period, year, month,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Owner, b.CategoryID, b.Amount.Cents(), string(b.Period), b.Year, nullInt(b.Month),
		b.IsActive, ts, ts)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	b.ID = id
	b.CreatedAt, b.UpdatedAt = now, now
	return b, nil
}

func (q *Queries) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, mapError(err))
	}
	return b, nil
}

// ListBudgets returns the owner's budgets, most recent period first.
func (q *Queries) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE owner = ?
		ORDER BY year DESC, COALESCE(month, 0) DESC, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (q *Queries) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount_cents = ?, period = ?, year = ?, month = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		b.CategoryID, b.Amount.Cents(), string(b.Period), b.Year, nullInt(b.Month),
		b.IsActive, ts, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	b.UpdatedAt = now
	return b, nil
}

func (q *Queries) DeleteBudget(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
