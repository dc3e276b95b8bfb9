package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// recordingPublisher captures events and can be told to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

var errBrokerDown = errors.New("broker down")

type env struct {
	repo      *storage.SQLiteRepository
	publisher *recordingPublisher
	ledger    *LedgerService
	planning  *PlanningService
	cats      *CategoryService
	recurring *RecurringService

	checking, savings core.Account
	salary, food      core.Category
}

const owner = "alice"

func newEnv(t *testing.T) *env {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "conti.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.Discard()
	e := &env{
		repo:      repo,
		publisher: &recordingPublisher{},
	}
	e.ledger = NewLedgerService(repo, e.publisher, logger)
	e.planning = NewPlanningService(repo, logger)
	e.cats = NewCategoryService(repo, nil, logger)
	e.recurring = NewRecurringService(repo, logger)

	ctx := context.Background()
	e.checking = e.mustAccount(t, "Checking", "100")
	e.savings = e.mustAccount(t, "Savings", "0")
	if e.salary, err = e.cats.CreateCategory(ctx, core.Category{Name: "Paycheck", TransactionType: core.Income, Owner: owner}); err != nil {
		t.Fatalf("create salary category: %v", err)
	}
	if e.food, err = e.cats.CreateCategory(ctx, core.Category{Name: "Food", TransactionType: core.Expense, Owner: owner}); err != nil {
		t.Fatalf("create food category: %v", err)
	}
	return e
}

func (e *env) mustAccount(t *testing.T, name, initial string) core.Account {
	t.Helper()
	a, err := e.ledger.CreateAccount(context.Background(), core.Account{
		Owner: owner, Name: name, Type: core.AccountBank, InitialBalance: core.MustParseMoney(initial),
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}
	return a
}

func (e *env) mustTransaction(t *testing.T, tx core.Transaction) core.Transaction {
	t.Helper()
	created, err := e.ledger.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction(%s) error = %v", tx, err)
	}
	return created
}

func (e *env) balance(t *testing.T, id int64) string {
	t.Helper()
	a, err := e.ledger.GetAccount(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("GetAccount(%d) error = %v", id, err)
	}
	return a.CurrentBalance.String()
}

func income(accountID, categoryID int64, amount string, day core.Date) core.Transaction {
	return core.Transaction{
		Owner: owner, AccountID: accountID, Type: core.Income, CategoryID: categoryID,
		Amount: core.MustParseMoney(amount), Description: "income", Date: day,
	}
}

func expense(accountID, categoryID int64, amount string, day core.Date) core.Transaction {
	return core.Transaction{
		Owner: owner, AccountID: accountID, Type: core.Expense, CategoryID: categoryID,
		Amount: core.MustParseMoney(amount), Description: "expense", Date: day,
	}
}

func ptr[T any](v T) *T { return &v }
