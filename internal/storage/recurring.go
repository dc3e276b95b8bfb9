package storage

import (
	"context"
	"database/sql"
	"fmt"

	"conti/internal/core"
)

const recurringColumns = `id, owner, account_id, category_id, transaction_type, amount_cents,
	description, frequency, day_of_month, start_date, end_date, is_active, last_generated,
	created_at, updated_at`

func scanRecurring(s scanner) (core.RecurringTransaction, error) {
	var (
		r                  core.RecurringTransaction
		typ, frequency     string
		amount             int64
		day                sql.NullInt64
		start              string
		end, lastGenerated sql.NullString
		created, updated   string
	)
	if err := s.Scan(&r.ID, &r.Owner, &r.AccountID, &r.CategoryID, &typ, &amount,
		&r.Description, &frequency, &day, &start, &end, &r.IsActive, &lastGenerated,
		&created, &updated); err != nil {
		return core.RecurringTransaction{}, err
	}
	r.Type = core.TransactionType(typ)
	r.Amount = core.NewMoneyFromCents(amount)
	r.Frequency = core.Frequency(frequency)
	r.DayOfMonth = intPtr(day)
	r.StartDate = parseDate(start)
	r.EndDate = dateFromNull(end)
	r.LastGenerated = dateFromNull(lastGenerated)
	r.CreatedAt = parseTimestamp(created)
	r.UpdatedAt = parseTimestamp(updated)
	return r, nil
}

func (q *Queries) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []core.RecurringTransaction
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, r)
	}
	return templates, rows.Err()
}

func (q *Queries) CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (owner, account_id, category_id, transaction_type,
			amount_cents, description, frequency, day_of_month, start_date, end_date,
			is_active, last_generated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Owner, r.AccountID, r.CategoryID, string(r.Type), r.Amount.Cents(),
		r.Description, string(r.Frequency), nullInt(r.DayOfMonth), r.StartDate.String(), nullDate(r.EndDate),
		r.IsActive, nullDate(r.LastGenerated), ts, ts)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	r.ID = id
	r.CreatedAt, r.UpdatedAt = now, now
	return r, nil
}

func (q *Queries) GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id)
	r, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("get recurring transaction %d: %w", id, mapError(err))
	}
	return r, nil
}

// ListRecurring returns the owner's templates, active ones first.
func (q *Queries) ListRecurring(ctx context.Context, owner string) ([]core.RecurringTransaction, error) {
	templates, err := q.queryRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE owner = ?
		ORDER BY is_active DESC, description`, owner)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return templates, nil
}

// ListActiveRecurring returns every active template, for all owners, that has
// started on or before asOf and whose watermark has not reached its end date.
func (q *Queries) ListActiveRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	templates, err := q.queryRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE is_active = 1
			AND start_date <= ?
			AND (end_date IS NULL OR last_generated IS NULL OR last_generated < end_date)
		ORDER BY id`, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	return templates, nil
}

// UpdateRecurring writes the editable fields; the watermark is moved only by
// SetLastGenerated.
func (q *Queries) UpdateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET account_id = ?, category_id = ?, transaction_type = ?, amount_cents = ?,
			description = ?, frequency = ?, day_of_month = ?, start_date = ?, end_date = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		r.AccountID, r.CategoryID, string(r.Type), r.Amount.Cents(),
		r.Description, string(r.Frequency), nullInt(r.DayOfMonth), r.StartDate.String(), nullDate(r.EndDate),
		r.IsActive, ts, r.ID)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("update recurring transaction %d: %w", r.ID, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("update recurring transaction %d: %w", r.ID, err)
	}
	r.UpdatedAt = now
	return r, nil
}

func (q *Queries) SetLastGenerated(ctx context.Context, id int64, day core.Date) error {
	_, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_generated = ?, updated_at = ? WHERE id = ?`,
		day.String(), ts, id)
	if err != nil {
		return fmt.Errorf("advance watermark of %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("advance watermark of %d: %w", id, err)
	}
	return nil
}

// DeleteRecurring removes the template; transactions it produced keep
// existing with their origin cleared.
func (q *Queries) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete recurring transaction %d: %w", id, err)
	}
	return nil
}
