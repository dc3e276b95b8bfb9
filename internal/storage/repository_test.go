package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"conti/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "conti.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	checking, savings core.Account
	salary, food      core.Category
}

func seed(t *testing.T, repo *SQLiteRepository, owner string) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	var err error

	f.checking, err = repo.CreateAccount(ctx, core.Account{
		Owner: owner, Name: "Checking", Type: core.AccountBank, Currency: core.CurrencyCLP,
		InitialBalance: core.MustParseMoney("100"), IsActive: true,
	})
	if err != nil {
		t.Fatalf("create checking: %v", err)
	}
	f.savings, err = repo.CreateAccount(ctx, core.Account{
		Owner: owner, Name: "Savings", Type: core.AccountSavings, Currency: core.CurrencyCLP, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create savings: %v", err)
	}
	f.salary, err = repo.CreateCategory(ctx, core.Category{
		Name: "Paycheck", TransactionType: core.Income, Color: core.ColorGreen, Owner: owner, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create salary: %v", err)
	}
	f.food, err = repo.CreateCategory(ctx, core.Category{
		Name: "Food", TransactionType: core.Expense, Color: core.ColorOrange, Owner: owner, IsActive: true,
	})
	if err != nil {
		t.Fatalf("create food: %v", err)
	}
	return f
}

func insert(t *testing.T, repo *SQLiteRepository, tx core.Transaction) core.Transaction {
	t.Helper()
	created, err := repo.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction(%s) error = %v", tx, err)
	}
	return created
}

func TestMigrationsSeedDefaultCategories(t *testing.T) {
	repo := newTestRepo(t)

	categories, err := repo.ListCategories(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected default categories after migration")
	}
	for _, c := range categories {
		if !c.IsGlobal() {
			t.Errorf("category %q has owner %q, want default", c.Name, c.Owner)
		}
	}
	// Ordered by type, so expense categories come first.
	if categories[0].TransactionType != core.Expense {
		t.Errorf("first category type = %s, want expense", categories[0].TransactionType)
	}
}

func TestAccountNameUniquePerOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := core.Account{Owner: "alice", Name: "Wallet", Type: core.AccountCash, Currency: core.CurrencyCLP}

	if _, err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.CreateAccount(ctx, acc); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate create error = %v, want ErrConflict", err)
	}

	acc.Owner = "bob"
	if _, err := repo.CreateAccount(ctx, acc); err != nil {
		t.Errorf("same name for another owner: %v", err)
	}
}

func TestAccountTotals(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo, "alice")
	day := core.NewDate(2024, 3, 10)
	dest := f.savings.ID

	insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Income,
		CategoryID: f.salary.ID, Amount: core.MustParseMoney("50"), Date: day})
	insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Expense,
		CategoryID: f.food.ID, Amount: core.MustParseMoney("30"), Date: day})
	insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Transfer,
		CategoryID: f.food.ID, Amount: core.MustParseMoney("20"), Date: day, DestinationAccountID: &dest})

	tests := []struct {
		name    string
		account int64
		want    core.LedgerTotals
	}{
		{
			name:    "source account",
			account: f.checking.ID,
			want: core.LedgerTotals{
				Income:      core.MustParseMoney("50"),
				Expense:     core.MustParseMoney("30"),
				TransferOut: core.MustParseMoney("20"),
				TransferIn:  core.Zero,
			},
		},
		{
			name:    "destination account",
			account: f.savings.ID,
			want:    core.LedgerTotals{TransferIn: core.MustParseMoney("20")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.AccountTotals(context.Background(), tt.account)
			if err != nil {
				t.Fatalf("AccountTotals() error = %v", err)
			}
			if !got.Income.Equal(tt.want.Income) || !got.Expense.Equal(tt.want.Expense) ||
				!got.TransferOut.Equal(tt.want.TransferOut) || !got.TransferIn.Equal(tt.want.TransferIn) {
				t.Errorf("AccountTotals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeleteReferencedRowsConflicts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")
	dest := f.savings.ID

	insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Transfer,
		CategoryID: f.food.ID, Amount: core.MustParseMoney("5"), Date: core.NewDate(2024, 1, 1),
		DestinationAccountID: &dest})

	if err := repo.DeleteAccount(ctx, f.checking.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("delete source account error = %v, want ErrConflict", err)
	}
	if err := repo.DeleteAccount(ctx, f.savings.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("delete destination account error = %v, want ErrConflict", err)
	}
	if err := repo.DeleteCategory(ctx, f.food.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("delete category error = %v, want ErrConflict", err)
	}
	if err := repo.DeleteCategory(ctx, f.salary.ID); err != nil {
		t.Errorf("delete unreferenced category: %v", err)
	}
}

func TestBudgetUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")
	march := 3

	monthly := core.Budget{Owner: "alice", CategoryID: f.food.ID, Amount: core.MustParseMoney("200"),
		Period: core.Monthly, Year: 2024, Month: &march, IsActive: true}
	yearly := core.Budget{Owner: "alice", CategoryID: f.food.ID, Amount: core.MustParseMoney("2000"),
		Period: core.Yearly, Year: 2024, IsActive: true}

	if _, err := repo.CreateBudget(ctx, monthly); err != nil {
		t.Fatalf("create monthly: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, monthly); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate monthly error = %v, want ErrConflict", err)
	}
	if _, err := repo.CreateBudget(ctx, yearly); err != nil {
		t.Fatalf("create yearly: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, yearly); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate yearly error = %v, want ErrConflict", err)
	}
}

func TestCategoryUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	global := core.Category{Name: "Pets", TransactionType: core.Expense, Color: core.ColorBlue, IsActive: true}

	if _, err := repo.CreateCategory(ctx, global); err != nil {
		t.Fatalf("create global: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, global); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate global error = %v, want ErrConflict", err)
	}

	owned := global
	owned.Owner = "alice"
	if _, err := repo.CreateCategory(ctx, owned); err != nil {
		t.Errorf("owned category shadowing a default one: %v", err)
	}

	income := global
	income.TransactionType = core.Income
	if _, err := repo.CreateCategory(ctx, income); err != nil {
		t.Errorf("same name with the other polarity: %v", err)
	}
}

func TestListTransactionsOrderAndNames(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")
	dest := f.savings.ID

	older := insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Expense,
		CategoryID: f.food.ID, Amount: core.MustParseMoney("1"), Date: core.NewDate(2024, 1, 1)})
	first := insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Expense,
		CategoryID: f.food.ID, Amount: core.MustParseMoney("2"), Date: core.NewDate(2024, 2, 1)})
	second := insert(t, repo, core.Transaction{Owner: "alice", AccountID: f.checking.ID, Type: core.Transfer,
		CategoryID: f.food.ID, Amount: core.MustParseMoney("3"), Date: core.NewDate(2024, 2, 1),
		DestinationAccountID: &dest})

	other := seed(t, repo, "bob")
	insert(t, repo, core.Transaction{Owner: "bob", AccountID: other.checking.ID, Type: core.Expense,
		CategoryID: other.food.ID, Amount: core.MustParseMoney("9"), Date: core.NewDate(2024, 3, 1)})

	views, err := repo.ListTransactions(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}

	wantOrder := []int64{second.ID, first.ID, older.ID}
	if len(views) != len(wantOrder) {
		t.Fatalf("got %d transactions, want %d", len(views), len(wantOrder))
	}
	for i, id := range wantOrder {
		if views[i].ID != id {
			t.Errorf("position %d: id = %d, want %d", i, views[i].ID, id)
		}
	}

	transfer := views[0]
	if transfer.AccountName != "Checking" || transfer.CategoryName != "Food" || transfer.DestinationAccountName != "Savings" {
		t.Errorf("joined names = %q/%q/%q", transfer.AccountName, transfer.CategoryName, transfer.DestinationAccountName)
	}
	if views[1].DestinationAccountName != "" {
		t.Errorf("non-transfer destination name = %q, want empty", views[1].DestinationAccountName)
	}

	page, err := repo.ListTransactions(ctx, "alice", 2, 2)
	if err != nil {
		t.Fatalf("ListTransactions(page 2) error = %v", err)
	}
	if len(page) != 1 || page[0].ID != older.ID {
		t.Errorf("second page = %+v, want only %d", page, older.ID)
	}

	total, err := repo.CountTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("CountTransactions() error = %v", err)
	}
	if total != 3 {
		t.Errorf("CountTransactions() = %d, want 3", total)
	}
}

func TestSumExpensesRange(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo, "alice")

	for _, tx := range []core.Transaction{
		{Type: core.Expense, CategoryID: f.food.ID, Amount: core.MustParseMoney("100"), Date: core.NewDate(2024, 3, 1)},
		{Type: core.Expense, CategoryID: f.food.ID, Amount: core.MustParseMoney("50"), Date: core.NewDate(2024, 3, 31)},
		{Type: core.Expense, CategoryID: f.food.ID, Amount: core.MustParseMoney("70"), Date: core.NewDate(2024, 4, 1)},
		{Type: core.Income, CategoryID: f.salary.ID, Amount: core.MustParseMoney("999"), Date: core.NewDate(2024, 3, 5)},
	} {
		tx.Owner = "alice"
		tx.AccountID = f.checking.ID
		insert(t, repo, tx)
	}

	got, err := repo.SumExpenses(context.Background(), "alice", f.food.ID,
		core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("SumExpenses() error = %v", err)
	}
	if want := core.MustParseMoney("150"); !got.Equal(want) {
		t.Errorf("SumExpenses() = %s, want %s", got, want)
	}
}

func TestCategoryInUse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")

	insert(t, repo, core.Transaction{
		Owner: "alice", AccountID: f.checking.ID, Type: core.Transfer, CategoryID: f.food.ID,
		Amount: core.MustParseMoney("5"), Date: core.NewDate(2024, 3, 1), DestinationAccountID: &f.savings.ID,
	})
	if n, err := repo.CategoryInUse(ctx, f.food.ID); err != nil || n != 0 {
		t.Fatalf("CategoryInUse() with only transfers = %d, %v, want 0", n, err)
	}

	insert(t, repo, core.Transaction{
		Owner: "alice", AccountID: f.checking.ID, Type: core.Expense, CategoryID: f.food.ID,
		Amount: core.MustParseMoney("5"), Date: core.NewDate(2024, 3, 2),
	})
	if n, err := repo.CategoryInUse(ctx, f.food.ID); err != nil || n != 1 {
		t.Errorf("CategoryInUse() = %d, %v, want 1", n, err)
	}
}

func TestDeleteRecurringKeepsTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")

	tmpl, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		Owner: "alice", AccountID: f.checking.ID, CategoryID: f.food.ID, Type: core.Expense,
		Amount: core.MustParseMoney("12"), Description: "Gym", Frequency: core.EveryMonth,
		StartDate: core.NewDate(2024, 1, 1), IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	tx := insert(t, repo, tmpl.Materialize(core.NewDate(2024, 1, 1)))

	if err := repo.SetLastGenerated(ctx, tmpl.ID, core.NewDate(2024, 1, 1)); err != nil {
		t.Fatalf("SetLastGenerated() error = %v", err)
	}
	got, err := repo.GetRecurring(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("GetRecurring() error = %v", err)
	}
	if got.LastGenerated.String() != "2024-01-01" {
		t.Errorf("LastGenerated = %s, want 2024-01-01", got.LastGenerated)
	}

	if err := repo.DeleteRecurring(ctx, tmpl.ID); err != nil {
		t.Fatalf("DeleteRecurring() error = %v", err)
	}
	kept, err := repo.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if kept.RecurringID != nil {
		t.Errorf("RecurringID = %d, want nil after template deletion", *kept.RecurringID)
	}
}

func TestInTxRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")
	boom := errors.New("boom")

	err := repo.InTx(ctx, func(q *Queries) error {
		if err := q.SetAccountBalance(ctx, f.checking.ID, core.MustParseMoney("999")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() error = %v, want boom", err)
	}

	acc, err := repo.GetAccount(ctx, f.checking.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if !acc.CurrentBalance.Equal(core.MustParseMoney("100")) {
		t.Errorf("balance = %s after rollback, want 100.00", acc.CurrentBalance)
	}
}

func TestMissingRowsAreNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["account"] = repo.GetAccount(ctx, 404)
	_, checks["transaction"] = repo.GetTransaction(ctx, 404)
	_, checks["budget"] = repo.GetBudget(ctx, 404)
	_, checks["goal"] = repo.GetGoal(ctx, 404)
	_, checks["recurring"] = repo.GetRecurring(ctx, 404)
	checks["delete goal"] = repo.DeleteGoal(ctx, 404)

	for name, err := range checks {
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("%s: error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestTransactionViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo, "alice")

	before := time.Now().Add(-time.Second)
	transfer := insert(t, repo, core.Transaction{
		Owner: "alice", AccountID: f.checking.ID, Type: core.Transfer, CategoryID: f.food.ID,
		Amount: core.MustParseMoney("5"), Date: core.NewDate(2024, 1, 1), DestinationAccountID: &f.savings.ID,
	})
	insert(t, repo, core.Transaction{
		Owner: "bob", AccountID: f.checking.ID, Type: core.Expense, CategoryID: f.food.ID,
		Amount: core.MustParseMoney("1"), Date: core.NewDate(2024, 1, 2),
	})

	v, err := repo.GetTransactionView(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("GetTransactionView() error = %v", err)
	}
	if v.AccountName != "Checking" || v.DestinationAccountName != "Savings" || v.CategoryName != "Food" {
		t.Errorf("GetTransactionView() names = %q %q %q", v.AccountName, v.DestinationAccountName, v.CategoryName)
	}
	if _, err := repo.GetTransactionView(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransactionView(missing) error = %v, want ErrNotFound", err)
	}

	since, err := repo.ListTransactionViewsUpdatedSince(ctx, before, 0, 10)
	if err != nil {
		t.Fatalf("ListTransactionViewsUpdatedSince() error = %v", err)
	}
	if len(since) != 2 || since[0].ID != transfer.ID {
		t.Errorf("ListTransactionViewsUpdatedSince() = %d rows, want 2 starting with %d", len(since), transfer.ID)
	}
	tail, err := repo.ListTransactionViewsUpdatedSince(ctx, since[0].UpdatedAt, since[0].ID, 10)
	if err != nil || len(tail) != 1 || tail[0].ID == transfer.ID {
		t.Errorf("ListTransactionViewsUpdatedSince(checkpoint) = %v, %v", tail, err)
	}
	later, err := repo.ListTransactionViewsUpdatedSince(ctx, time.Now().Add(time.Hour), 0, 10)
	if err != nil || len(later) != 0 {
		t.Errorf("ListTransactionViewsUpdatedSince(future) = %v, %v", later, err)
	}
}
