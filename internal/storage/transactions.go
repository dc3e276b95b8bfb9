package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"conti/internal/core"
)

const transactionColumns = `t.id, t.owner, t.account_id, t.transaction_type, t.category_id,
	t.amount_cents, t.description, t.notes, t.transaction_date, t.destination_account_id,
	t.receipt, t.recurring_transaction_id, t.created_at, t.updated_at`

// transactionRow holds the columns that need conversion after Scan.
type transactionRow struct {
	typ, date, created, updated string
	amount                      int64
	dest, recurring             sql.NullInt64
}

func (r *transactionRow) targets(t *core.Transaction) []any {
	return []any{&t.ID, &t.Owner, &t.AccountID, &r.typ, &t.CategoryID, &r.amount,
		&t.Description, &t.Notes, &r.date, &r.dest, &t.ReceiptKey, &r.recurring,
		&r.created, &r.updated}
}

func (r *transactionRow) fill(t *core.Transaction) {
	t.Type = core.TransactionType(r.typ)
	t.Amount = core.NewMoneyFromCents(r.amount)
	t.Date = parseDate(r.date)
	t.DestinationAccountID = int64Ptr(r.dest)
	t.RecurringID = int64Ptr(r.recurring)
	t.CreatedAt = parseTimestamp(r.created)
	t.UpdatedAt = parseTimestamp(r.updated)
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t core.Transaction
		r transactionRow
	)
	if err := s.Scan(r.targets(&t)...); err != nil {
		return core.Transaction{}, err
	}
	r.fill(&t)
	return t, nil
}

func scanTransactionView(s scanner) (core.TransactionView, error) {
	var (
		v core.TransactionView
		r transactionRow
	)
	dest := append(r.targets(&v.Transaction), &v.AccountName, &v.CategoryName, &v.DestinationAccountName)
	if err := s.Scan(dest...); err != nil {
		return core.TransactionView{}, err
	}
	r.fill(&v.Transaction)
	return v, nil
}

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (owner, account_id, transaction_type, category_id, amount_cents,
			description, notes, transaction_date, destination_account_id, receipt,
			recurring_transaction_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.AccountID, string(t.Type), t.CategoryID, t.Amount.Cents(),
		t.Description, t.Notes, t.Date.String(), nullInt64(t.DestinationAccountID), t.ReceiptKey,
		nullInt64(t.RecurringID), ts, ts)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id
	t.CreatedAt, t.UpdatedAt = now, now
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, mapError(err))
	}
	return t, nil
}

// UpdateTransaction overwrites every editable field. Owner, origin template
// and creation time are kept.
func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, transaction_type = ?, category_id = ?, amount_cents = ?,
			description = ?, notes = ?, transaction_date = ?, destination_account_id = ?,
			receipt = ?, updated_at = ?
		WHERE id = ?`,
		t.AccountID, string(t.Type), t.CategoryID, t.Amount.Cents(),
		t.Description, t.Notes, t.Date.String(), nullInt64(t.DestinationAccountID),
		t.ReceiptKey, ts, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	t.UpdatedAt = now
	return t, nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

const transactionViewQuery = `
		SELECT ` + transactionColumns + `, a.name, c.name, COALESCE(d.name, '')
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id
		LEFT JOIN accounts d ON d.id = t.destination_account_id`

// GetTransactionView returns one transaction joined with the names of the
// rows it references.
func (q *Queries) GetTransactionView(ctx context.Context, id int64) (core.TransactionView, error) {
	v, err := scanTransactionView(q.db.QueryRowContext(ctx, transactionViewQuery+`
		WHERE t.id = ?`, id))
	if err != nil {
		return core.TransactionView{}, fmt.Errorf("get transaction view %d: %w", id, mapError(err))
	}
	return v, nil
}

// ListTransactionViewsUpdatedSince returns transactions of every owner
// written after the (since, afterID) checkpoint, oldest change first. The ID
// breaks ties between rows written in the same instant.
func (q *Queries) ListTransactionViewsUpdatedSince(ctx context.Context, since time.Time, afterID int64, limit int) ([]core.TransactionView, error) {
	ts := since.UTC().Format(timestampLayout)
	rows, err := q.db.QueryContext(ctx, transactionViewQuery+`
		WHERE t.updated_at > ? OR (t.updated_at = ? AND t.id > ?)
		ORDER BY t.updated_at, t.id
		LIMIT ?`, ts, ts, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions updated since %s: %w", ts, err)
	}
	defer rows.Close()

	var views []core.TransactionView
	for rows.Next() {
		v, err := scanTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// ListTransactions returns one page of the owner's transactions joined with
// account and category names, newest first.
func (q *Queries) ListTransactions(ctx context.Context, owner string, limit, offset int) ([]core.TransactionView, error) {
	rows, err := q.db.QueryContext(ctx, transactionViewQuery+`
		WHERE t.owner = ?
		ORDER BY t.transaction_date DESC, t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var views []core.TransactionView
	for rows.Next() {
		v, err := scanTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (q *Queries) CountTransactions(ctx context.Context, owner string) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE owner = ?`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// SumExpenses totals the owner's expense transactions filed under categoryID
// dated from first through last.
func (q *Queries) SumExpenses(ctx context.Context, owner string, categoryID int64, first, last core.Date) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE owner = ? AND category_id = ? AND transaction_type = 'expense'
			AND transaction_date >= ? AND transaction_date <= ?`,
		owner, categoryID, first.String(), last.String()).Scan(&cents)
	if err != nil {
		return core.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return core.NewMoneyFromCents(cents), nil
}
