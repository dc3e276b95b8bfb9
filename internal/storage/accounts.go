package storage

import (
	"context"
	"fmt"

	"conti/internal/core"
)

const accountColumns = `id, owner, name, account_type, currency, initial_balance_cents,
	current_balance_cents, is_active, notes, created_at, updated_at`

func scanAccount(s scanner) (core.Account, error) {
	var (
		a                core.Account
		typ, currency    string
		initial, current int64
		created, updated string
	)
	if err := s.Scan(&a.ID, &a.Owner, &a.Name, &typ, &currency, &initial,
		&current, &a.IsActive, &a.Notes, &created, &updated); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.Currency = core.Currency(currency)
	a.InitialBalance = core.NewMoneyFromCents(initial)
	a.CurrentBalance = core.NewMoneyFromCents(current)
	a.CreatedAt = parseTimestamp(created)
	a.UpdatedAt = parseTimestamp(updated)
	return a, nil
}

// CreateAccount inserts a; the current balance starts at the initial balance.
func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (owner, name, account_type, currency, initial_balance_cents,
			current_balance_cents, is_active, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Owner, a.Name, string(a.Type), string(a.Currency), a.InitialBalance.Cents(),
		a.InitialBalance.Cents(), a.IsActive, a.Notes, ts, ts)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	a.ID = id
	a.CurrentBalance = a.InitialBalance
	a.CreatedAt, a.UpdatedAt = now, now
	return a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, mapError(err))
	}
	return a, nil
}

// ListAccounts returns the owner's accounts, active ones first.
func (q *Queries) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE owner = ?
		ORDER BY is_active DESC, name`, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount writes the editable fields. The cached balance is left to
// SetAccountBalance.
func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	now, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, account_type = ?, currency = ?, initial_balance_cents = ?,
			is_active = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, string(a.Type), string(a.Currency), a.InitialBalance.Cents(),
		a.IsActive, a.Notes, ts, a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	a.UpdatedAt = now
	return a, nil
}

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

func (q *Queries) SetAccountBalance(ctx context.Context, id int64, balance core.Money) error {
	_, ts := q.timestamp()
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET current_balance_cents = ?, updated_at = ? WHERE id = ?`,
		balance.Cents(), ts, id)
	if err != nil {
		return fmt.Errorf("set balance of account %d: %w", id, mapError(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("set balance of account %d: %w", id, err)
	}
	return nil
}

// AccountTotals sums every transaction touching the account, per direction.
func (q *Queries) AccountTotals(ctx context.Context, id int64) (core.LedgerTotals, error) {
	var income, expense, out, in int64
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN account_id = ? AND transaction_type = 'income' THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN account_id = ? AND transaction_type = 'expense' THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN account_id = ? AND transaction_type = 'transfer' THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN destination_account_id = ? AND transaction_type = 'transfer' THEN amount_cents END), 0)
		FROM transactions
		WHERE account_id = ? OR destination_account_id = ?`,
		id, id, id, id, id, id).Scan(&income, &expense, &out, &in)
	if err != nil {
		return core.LedgerTotals{}, fmt.Errorf("sum transactions of account %d: %w", id, err)
	}
	return core.LedgerTotals{
		Income:      core.NewMoneyFromCents(income),
		Expense:     core.NewMoneyFromCents(expense),
		TransferOut: core.NewMoneyFromCents(out),
		TransferIn:  core.NewMoneyFromCents(in),
	}, nil
}
