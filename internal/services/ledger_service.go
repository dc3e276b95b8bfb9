package services

import (
	"context"
	"fmt"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// EventPublisher receives ledger events after a write commits.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// LedgerService owns accounts, transactions and the cached account balances.
// It is the only writer of current_balance.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	locks     *accountLocks
	logger    *log.Logger
	audit     *log.StructuredLogger
	pageSize  int
}

// NewLedgerService wires the ledger. publisher may be nil, in which case no
// events are emitted.
func NewLedgerService(storage *storage.SQLiteRepository, publisher EventPublisher, logger *log.Logger) *LedgerService {
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		locks:     newAccountLocks(),
		logger:    logger,
		audit:     log.NewStructuredLogger(logger),
		pageSize:  DefaultPageSize,
	}
}

// SetDefaultPageSize overrides the page size used when callers pass none.
func (s *LedgerService) SetDefaultPageSize(n int) {
	if n > 0 && n <= MaxPageSize {
		s.pageSize = n
	}
}

// recompute rescans the account's transactions and stores the balance. It
// runs inside the caller's transaction.
func recompute(ctx context.Context, q *storage.Queries, accountID int64) (core.Money, error) {
	account, err := q.GetAccount(ctx, accountID)
	if err != nil {
		return core.Zero, err
	}
	totals, err := q.AccountTotals(ctx, accountID)
	if err != nil {
		return core.Zero, err
	}
	balance := totals.Balance(account.InitialBalance)
	if err := q.SetAccountBalance(ctx, accountID, balance); err != nil {
		return core.Zero, err
	}
	return balance, nil
}

func recomputeAll(ctx context.Context, q *storage.Queries, ids []int64) error {
	for _, id := range ids {
		if _, err := recompute(ctx, q, id); err != nil {
			return fmt.Errorf("recompute balance: %w", err)
		}
	}
	return nil
}

// RecomputeBalance rebuilds the account's balance from scratch. Running it
// twice yields the same result.
func (s *LedgerService) RecomputeBalance(ctx context.Context, owner string, accountID int64) (core.Money, error) {
	unlock := s.locks.lock(accountID)
	defer unlock()

	var balance core.Money
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := ownedAccount(ctx, q, owner, accountID); err != nil {
			return err
		}
		var err error
		balance, err = recompute(ctx, q, accountID)
		return err
	})
	if err != nil {
		return core.Zero, err
	}

	s.logger.DebugContext(ctx, "Balance recomputed",
		log.FieldAccountID, accountID,
		log.FieldBalance, balance.String())
	return balance, nil
}

func ownedAccount(ctx context.Context, q *storage.Queries, owner string, id int64) (core.Account, error) {
	a, err := q.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if a.Owner != owner {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return a, nil
}

// checkReferences verifies that the accounts belong to the owner and that the
// category is visible and of the right polarity.
func checkReferences(ctx context.Context, q *storage.Queries, t core.Transaction) error {
	for _, id := range t.AffectedAccounts() {
		if _, err := ownedAccount(ctx, q, t.Owner, id); err != nil {
			return err
		}
	}
	c, err := q.GetCategory(ctx, t.CategoryID)
	if err != nil {
		return err
	}
	if err := t.CheckCategory(c); err != nil {
		return fmt.Errorf("category %d: %w", t.CategoryID, err)
	}
	return nil
}

// CreateTransaction records t and refreshes the balance of every account it
// touches, all in one database transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.Amount.IsZero() {
		return core.Transaction{}, core.Invalidf("amount must be greater than zero")
	}

	affected := t.AffectedAccounts()
	unlock := s.locks.lock(affected...)
	defer unlock()

	var created core.Transaction
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if err := checkReferences(ctx, q, t); err != nil {
			return err
		}
		var err error
		if created, err = q.CreateTransaction(ctx, t); err != nil {
			return err
		}
		return recomputeAll(ctx, q, affected)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.audit.LogTransactionWritten(ctx, log.OpCreate, created.Owner, created.ID,
		string(created.Type), created.Amount.String(), created.AccountID)
	s.publish(ctx, amqp.TransactionCreated, created.ID, created.Owner, affected)
	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Owner != owner {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

// UpdateTransaction replaces t's editable fields. Balances of the accounts
// touched before and after the edit are recomputed.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	old, err := s.GetTransaction(ctx, t.Owner, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	affected := append(old.AffectedAccounts(), t.AffectedAccounts()...)
	unlock := s.locks.lock(affected...)
	defer unlock()

	var updated core.Transaction
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		current, err := q.GetTransaction(ctx, t.ID)
		if err != nil {
			return err
		}
		if err := checkReferences(ctx, q, t); err != nil {
			return err
		}
		t.RecurringID = current.RecurringID
		t.CreatedAt = current.CreatedAt
		if updated, err = q.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		// Recompute whatever the row touched when the lock was taken and now.
		return recomputeAll(ctx, q, dedupe(append(current.AffectedAccounts(), affected...)))
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.audit.LogTransactionWritten(ctx, log.OpUpdate, updated.Owner, updated.ID,
		string(updated.Type), updated.Amount.String(), updated.AccountID)
	s.publish(ctx, amqp.TransactionUpdated, updated.ID, updated.Owner, dedupe(affected))
	return updated, nil
}

// DeleteTransaction removes the transaction and refreshes the balances it
// contributed to.
func (s *LedgerService) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	old, err := s.GetTransaction(ctx, owner, id)
	if err != nil {
		return err
	}

	affected := old.AffectedAccounts()
	unlock := s.locks.lock(affected...)
	defer unlock()

	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		if err := q.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		return recomputeAll(ctx, q, affected)
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.audit.LogTransactionWritten(ctx, log.OpDelete, owner, id,
		string(old.Type), old.Amount.String(), old.AccountID)
	s.publish(ctx, amqp.TransactionDeleted, id, owner, affected)
	return nil
}

// ListTransactions returns a 1-based page of the owner's transactions, newest
// first. Out of range arguments fall back to the first page and the default
// page size.
func (s *LedgerService) ListTransactions(ctx context.Context, owner string, page, pageSize int) (core.TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.storage.CountTransactions(ctx, owner)
	if err != nil {
		return core.TransactionPage{}, err
	}
	items, err := s.storage.ListTransactions(ctx, owner, pageSize, (page-1)*pageSize)
	if err != nil {
		return core.TransactionPage{}, err
	}
	if items == nil {
		items = []core.TransactionView{}
	}
	return core.TransactionPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// MaterializeRecurring inserts one transaction per day for the template,
// refreshes the account balance and advances the template watermark to the
// last day, atomically.
func (s *LedgerService) MaterializeRecurring(ctx context.Context, r core.RecurringTransaction, days []core.Date) ([]core.Transaction, error) {
	if len(days) == 0 {
		return nil, nil
	}

	unlock := s.locks.lock(r.AccountID)
	defer unlock()

	created := make([]core.Transaction, 0, len(days))
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		for _, day := range days {
			t := r.Materialize(day)
			if err := t.Validate(); err != nil {
				return err
			}
			if err := checkReferences(ctx, q, t); err != nil {
				return err
			}
			inserted, err := q.CreateTransaction(ctx, t)
			if err != nil {
				return err
			}
			created = append(created, inserted)
		}
		if _, err := recompute(ctx, q, r.AccountID); err != nil {
			return err
		}
		return q.SetLastGenerated(ctx, r.ID, days[len(days)-1])
	})
	if err != nil {
		return nil, fmt.Errorf("materialize recurring %d: %w", r.ID, err)
	}

	for _, t := range created {
		s.publish(ctx, amqp.TransactionCreated, t.ID, t.Owner, t.AffectedAccounts())
	}
	return created, nil
}

// publish is best effort: the write has already committed.
func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, id int64, owner string, accounts []int64) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping event",
			log.FieldEventKind, kind, log.FieldTransactionID, id)
		return
	}
	ev := amqp.NewTransactionEvent(kind, id, owner, accounts)
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldEventKind, kind,
			log.FieldTransactionID, id,
			log.FieldError, err)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
