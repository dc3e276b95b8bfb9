package storage

import (
	"context"
	"fmt"

	"conti/internal/core"
)

const goalColumns = `id, owner, name, target_amount_cents, current_amount_cents, target_date,
	status, notes, created_at, updated_at`

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g                core.Goal
		target, current  int64
		date, status     string
		created, updated string
	)
	if err := s.Scan(&g.ID, &g.Owner, &g.Name, &target, &current, &date,
		&status, &g.Notes, &created, &updated); err != nil {
		return core.Goal{}, err
	}
	g.TargetAmount = core.NewMoneyFromCents(target)
	g.CurrentAmount = core.NewMoneyFromCents(current)
	g.TargetDate = parseDate(date)
	g.Status = core.GoalStatus(status)
	g.CreatedAt = parseTimestamp(created)
	g.UpdatedAt = parseTimestamp(updated)
	return g, nil
}

func (q *Queries) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO goals (owner, name, target_amount_cents, current_amount_cents, target_date,
			status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Owner, g.Name, g.TargetAmount.Cents(), g.CurrentAmount.Cents(), g.TargetDate.String(),
		string(g.Status), g.Notes, ts, ts)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	g.ID = id
	g.CreatedAt, g.UpdatedAt = now, now
	return g, nil
}

func (q *Queries) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %d: %w", id, mapError(err))
	}
	return g, nil
}

// ListGoals returns the owner's goals by target date, newest first on ties.
func (q *Queries) ListGoals(ctx context.Context, owner string) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM goals
		WHERE owner = ?
		ORDER BY target_date, created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (q *Queries) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, target_amount_cents = ?, current_amount_cents = ?, target_date = ?,
			status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		g.Name, g.TargetAmount.Cents(), g.CurrentAmount.Cents(), g.TargetDate.String(),
		string(g.Status), g.Notes, ts, g.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", g.ID, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	g.UpdatedAt = now
	return g, nil
}

func (q *Queries) DeleteGoal(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}
