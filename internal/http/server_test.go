package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/middleware/auth"
	"conti/internal/receipts"
	"conti/internal/services"
	"conti/internal/storage"
)

var testSecret = []byte("test-secret")

type testServer struct {
	*Server
	receiptsDir string
}

func newTestServer(t *testing.T, withReceipts bool) *testServer {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "conti.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.Discard()
	ledger := services.NewLedgerService(repo, nil, logger)
	deps := Deps{
		DB:         repo,
		Ledger:     ledger,
		Planning:   services.NewPlanningService(repo, logger),
		Categories: services.NewCategoryService(repo, nil, logger),
		Recurring:  services.NewRecurringService(repo, logger),
		Logger:     logger,
	}
	ts := &testServer{}
	if withReceipts {
		ts.receiptsDir = t.TempDir()
		store, err := receipts.NewFSStore(ts.receiptsDir)
		if err != nil {
			t.Fatalf("NewFSStore() error = %v", err)
		}
		deps.Receipts = store
	}

	srv, err := NewServer(":0", deps, Options{JWTSecret: testSecret, RateLimitRPS: 1000, RateLimitBurst: 1000})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(srv.rateLimiter.Stop)
	ts.Server = srv
	return ts
}

func bearer(t *testing.T, owner string) string {
	t.Helper()
	token, err := auth.SignToken(testSecret, owner, time.Hour)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	return "Bearer " + token
}

// do sends body (a string is sent verbatim, anything else as JSON) as owner.
func (ts *testServer) do(t *testing.T, method, target, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.10:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set("Authorization", bearer(t, owner))
	}
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

// seed creates a bank account with the given initial balance plus one income
// and one expense category.
func (ts *testServer) seed(t *testing.T, owner, initial string) (account core.Account, salary, food core.Category) {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/accounts", owner, map[string]any{
		"name": "Checking", "account_type": "bank", "initial_balance": initial,
	})
	expectStatus(t, rr, http.StatusCreated)
	account = decode[core.Account](t, rr)

	rr = ts.do(t, http.MethodPost, "/api/categories", owner, map[string]any{"name": "Salary", "transaction_type": "income"})
	expectStatus(t, rr, http.StatusCreated)
	salary = decode[core.Category](t, rr)

	rr = ts.do(t, http.MethodPost, "/api/categories", owner, map[string]any{"name": "Food"})
	expectStatus(t, rr, http.StatusCreated)
	food = decode[core.Category](t, rr)
	return account, salary, food
}

func (ts *testServer) balance(t *testing.T, owner string, id int64) string {
	t.Helper()
	rr := ts.do(t, http.MethodGet, fmt.Sprintf("/api/accounts/%d", id), owner, nil)
	expectStatus(t, rr, http.StatusOK)
	return decode[core.Account](t, rr).CurrentBalance.String()
}

func TestHealthReadyAndMetrics(t *testing.T) {
	ts := newTestServer(t, false)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(t, http.MethodGet, path, "", nil)
		expectStatus(t, rr, http.StatusOK)
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}

	ready := decode[map[string]any](t, ts.do(t, http.MethodGet, "/readyz", "", nil))
	checks := ready["checks"].(map[string]any)
	if checks["database"] != "ok" || checks["receipts"] != "disabled" {
		t.Fatalf("readyz checks = %v", checks)
	}

	rr := ts.do(t, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "http_requests_total 4") {
		t.Fatalf("metrics body = %s", rr.Body.String())
	}
}

func TestAPIRequiresToken(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.do(t, http.MethodGet, "/api/accounts", "", nil)
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = ts.do(t, http.MethodGet, "/api/nothing-here", "alice", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = ts.do(t, http.MethodPatch, "/api/accounts", "alice", nil)
	expectStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestTransactionsMoveBalances(t *testing.T) {
	ts := newTestServer(t, false)
	account, salary, food := ts.seed(t, "alice", "100")

	rr := ts.do(t, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "income", "category_id": salary.ID,
		"amount": "50", "description": "paycheck", "transaction_date": "2024-03-01",
	})
	expectStatus(t, rr, http.StatusCreated)

	rr = ts.do(t, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
		"amount": 30, "description": "<i>groceries</i>", "transaction_date": "2024-03-02",
	})
	expectStatus(t, rr, http.StatusCreated)
	groceries := decode[core.Transaction](t, rr)
	if groceries.Description != "groceries" {
		t.Fatalf("description = %q, markup not stripped", groceries.Description)
	}
	if got := ts.balance(t, "alice", account.ID); got != "120.00" {
		t.Fatalf("balance = %s, want 120.00", got)
	}

	rr = ts.do(t, http.MethodPut, fmt.Sprintf("/api/transactions/%d", groceries.ID), "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
		"amount": "45.50", "description": "groceries", "transaction_date": "2024-03-02",
	})
	expectStatus(t, rr, http.StatusOK)
	if got := ts.balance(t, "alice", account.ID); got != "104.50" {
		t.Fatalf("balance after update = %s, want 104.50", got)
	}

	rr = ts.do(t, http.MethodGet, "/api/transactions?page=1&page_size=1", "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	page := decode[core.TransactionPage](t, rr)
	if page.Total != 2 || len(page.Items) != 1 || page.PageSize != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].AccountName != "Checking" {
		t.Fatalf("view account name = %q", page.Items[0].AccountName)
	}

	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", groceries.ID), "alice", nil)
	expectStatus(t, rr, http.StatusNoContent)
	if got := ts.balance(t, "alice", account.ID); got != "150.00" {
		t.Fatalf("balance after delete = %s, want 150.00", got)
	}

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/api/accounts/%d/recompute", account.ID), "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[map[string]any](t, rr)["current_balance"]; got != "150.00" {
		t.Fatalf("recompute = %v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, false)
	account, salary, food := ts.seed(t, "alice", "100")
	ts.do(t, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "income", "category_id": salary.ID,
		"amount": "10", "description": "x", "transaction_date": "2024-03-01",
	})

	tests := []struct {
		name   string
		method string
		target string
		owner  string
		body   any
		want   int
	}{
		{"negative amount", http.MethodPost, "/api/transactions", "alice", map[string]any{
			"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
			"amount": "-5", "description": "x", "transaction_date": "2024-03-01",
		}, http.StatusBadRequest},
		{"wrong polarity", http.MethodPost, "/api/transactions", "alice", map[string]any{
			"account_id": account.ID, "transaction_type": "expense", "category_id": salary.ID,
			"amount": "5", "description": "x", "transaction_date": "2024-03-01",
		}, http.StatusBadRequest},
		{"bad amount text", http.MethodPost, "/api/transactions", "alice", `{"amount":"abc"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/accounts", "alice", `{"name":"X","account_type":"bank","owner":"mallory"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/accounts", "alice", `{"name":`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/accounts", "alice", "", http.StatusBadRequest},
		{"duplicate account", http.MethodPost, "/api/accounts", "alice", map[string]any{"name": "Checking", "account_type": "bank"}, http.StatusConflict},
		{"account in use", http.MethodDelete, fmt.Sprintf("/api/accounts/%d", account.ID), "alice", nil, http.StatusConflict},
		{"foreign owner", http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), "bob", nil, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/accounts/abc", "alice", nil, http.StatusNotFound},
		{"bad page", http.MethodGet, "/api/transactions?page=x", "alice", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.target, tt.owner, tt.body)
			expectStatus(t, rr, tt.want)
			if tt.want != http.StatusNoContent && decode[errorBody](t, rr).Error == "" {
				t.Fatal("error body missing message")
			}
		})
	}

	if got := ts.balance(t, "alice", account.ID); got != "110.00" {
		t.Fatalf("balance = %s after rejected writes, want 110.00", got)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	ts := newTestServer(t, false)

	rr := ts.do(t, http.MethodPost, "/api/categories", "alice", map[string]any{"name": "Home"})
	expectStatus(t, rr, http.StatusCreated)
	home := decode[core.Category](t, rr)
	if home.TransactionType != core.Expense || home.Color != core.DefaultColor {
		t.Fatalf("defaults not applied: %+v", home)
	}

	rr = ts.do(t, http.MethodPost, "/api/categories", "alice", map[string]any{"name": "Utilities", "parent_id": home.ID})
	expectStatus(t, rr, http.StatusCreated)
	utilities := decode[core.Category](t, rr)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d/path", utilities.ID), "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[map[string]any](t, rr)["path"]; got != "Home > Utilities" {
		t.Fatalf("path = %v", got)
	}

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d/subcategories", home.ID), "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if children := decode[[]core.Category](t, rr); len(children) != 1 || children[0].ID != utilities.ID {
		t.Fatalf("subcategories = %+v", children)
	}

	rr = ts.do(t, http.MethodPut, fmt.Sprintf("/api/categories/%d", home.ID), "alice", map[string]any{"name": "Home", "parent_id": utilities.ID})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d", home.ID), "bob", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", home.ID), "alice", nil)
	expectStatus(t, rr, http.StatusNoContent)
	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d", utilities.ID), "alice", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestBudgetAndGoalEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	account, _, food := ts.seed(t, "alice", "500")

	rr := ts.do(t, http.MethodPost, "/api/budgets", "alice", map[string]any{
		"category_id": food.ID, "amount": "200", "period": "monthly", "year": 2024, "month": 3,
	})
	expectStatus(t, rr, http.StatusCreated)
	budget := decode[core.Budget](t, rr)

	rr = ts.do(t, http.MethodPost, "/api/budgets", "alice", map[string]any{
		"category_id": food.ID, "amount": "300", "period": "monthly", "year": 2024, "month": 3,
	})
	expectStatus(t, rr, http.StatusConflict)

	rr = ts.do(t, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
		"amount": "150", "description": "market", "transaction_date": "2024-03-10",
	})
	expectStatus(t, rr, http.StatusCreated)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/budgets/%d/status", budget.ID), "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	status := decode[core.BudgetProgress](t, rr)
	if status.Spent.String() != "150.00" || status.Remaining.String() != "50.00" || status.PercentageUsed != 75 || status.OverLimit {
		t.Fatalf("status = %+v", status)
	}

	rr = ts.do(t, http.MethodGet, "/api/budgets/status", "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if all := decode[[]core.BudgetProgress](t, rr); len(all) != 1 || all[0].CategoryName != "Food" {
		t.Fatalf("status list = %+v", all)
	}

	rr = ts.do(t, http.MethodPost, "/api/goals", "alice", map[string]any{
		"name": "Trip", "target_amount": "1000", "current_amount": "250", "target_date": "2025-06-01",
	})
	expectStatus(t, rr, http.StatusCreated)
	goal := decode[core.Goal](t, rr)
	if goal.Status != core.GoalActive {
		t.Fatalf("goal status = %q", goal.Status)
	}

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/goals/%d/progress", goal.ID), "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if p := decode[core.GoalProgress](t, rr); p.PercentageComplete != 25 || p.IsComplete {
		t.Fatalf("progress = %+v", p)
	}

	rr = ts.do(t, http.MethodPut, fmt.Sprintf("/api/goals/%d/progress", goal.ID), "alice", map[string]any{"current_amount": "1000"})
	expectStatus(t, rr, http.StatusOK)
	if p := decode[core.GoalProgress](t, rr); p.PercentageComplete != 100 || !p.IsComplete {
		t.Fatalf("progress after update = %+v", p)
	}

	rr = ts.do(t, http.MethodPut, fmt.Sprintf("/api/goals/%d/progress", goal.ID), "alice", map[string]any{"current_amount": "-1"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budget.ID), "bob", nil)
	expectStatus(t, rr, http.StatusNotFound)
	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budget.ID), "alice", nil)
	expectStatus(t, rr, http.StatusNoContent)
}

func TestRecurringEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	account, _, food := ts.seed(t, "alice", "100")

	body := map[string]any{
		"account_id": account.ID, "category_id": food.ID, "transaction_type": "expense",
		"amount": "12.99", "description": "Streaming", "frequency": "monthly",
		"day_of_month": 31, "start_date": "2024-01-01",
	}
	rr := ts.do(t, http.MethodPost, "/api/recurring", "alice", body)
	expectStatus(t, rr, http.StatusCreated)
	template := decode[core.RecurringTransaction](t, rr)
	if !template.IsActive || template.DayOfMonth == nil || *template.DayOfMonth != 31 {
		t.Fatalf("template = %+v", template)
	}

	body["is_active"] = false
	rr = ts.do(t, http.MethodPut, fmt.Sprintf("/api/recurring/%d", template.ID), "alice", body)
	expectStatus(t, rr, http.StatusOK)
	if decode[core.RecurringTransaction](t, rr).IsActive {
		t.Fatal("template still active after pause")
	}

	body["frequency"] = "hourly"
	rr = ts.do(t, http.MethodPost, "/api/recurring", "alice", body)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, http.MethodGet, "/api/recurring", "bob", nil)
	expectStatus(t, rr, http.StatusOK)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("bob sees %s", rr.Body.String())
	}

	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/recurring/%d", template.ID), "alice", nil)
	expectStatus(t, rr, http.StatusNoContent)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		fw.Write(content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, id int64, owner, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/transactions/%d/receipt", id), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, owner))
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}

func TestReceipts(t *testing.T) {
	ts := newTestServer(t, true)
	account, _, food := ts.seed(t, "alice", "100")
	rr := ts.do(t, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
		"amount": "9.90", "description": "lunch", "transaction_date": "2024-07-04",
	})
	expectStatus(t, rr, http.StatusCreated)
	tx := decode[core.Transaction](t, rr)
	receiptURL := fmt.Sprintf("/api/transactions/%d/receipt", tx.ID)

	rr = ts.do(t, http.MethodGet, receiptURL, "alice", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = ts.upload(t, tx.ID, "alice", "file", "Lunch.PDF", []byte("%PDF-first"))
	expectStatus(t, rr, http.StatusOK)
	first := decode[core.Transaction](t, rr).ReceiptKey
	if !strings.HasPrefix(first, "receipts/2024/07/") || !strings.HasSuffix(first, ".pdf") {
		t.Fatalf("receipt key = %q", first)
	}

	rr = ts.do(t, http.MethodGet, receiptURL, "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.String() != "%PDF-first" || rr.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("download = %q (%s)", rr.Body.String(), rr.Header().Get("Content-Type"))
	}

	// A transaction update keeps the receipt.
	rr = ts.do(t, http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID), "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
		"amount": "9.90", "description": "team lunch", "transaction_date": "2024-07-04",
	})
	expectStatus(t, rr, http.StatusOK)
	if got := decode[core.Transaction](t, rr).ReceiptKey; got != first {
		t.Fatalf("receipt after update = %q, want %q", got, first)
	}

	rr = ts.upload(t, tx.ID, "alice", "file", "lunch.png", []byte("png-bytes"))
	expectStatus(t, rr, http.StatusOK)
	second := decode[core.Transaction](t, rr).ReceiptKey
	if second == first {
		t.Fatal("second upload reused the key")
	}
	store, _ := receipts.NewFSStore(ts.receiptsDir)
	if _, err := store.Open(context.Background(), first); err == nil {
		t.Fatal("replaced receipt still stored")
	}

	tests := []struct {
		name     string
		owner    string
		field    string
		filename string
		want     int
	}{
		{"unsupported type", "alice", "file", "notes.exe", http.StatusBadRequest},
		{"missing field", "alice", "", "", http.StatusBadRequest},
		{"foreign owner", "bob", "file", "x.pdf", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, ts.upload(t, tx.ID, tt.owner, tt.field, tt.filename, []byte("x")), tt.want)
		})
	}

	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), "alice", nil)
	expectStatus(t, rr, http.StatusNoContent)
	if _, err := store.Open(context.Background(), second); err == nil {
		t.Fatal("receipt kept after its transaction was deleted")
	}
}

func TestReceiptsDisabled(t *testing.T) {
	ts := newTestServer(t, false)
	account, _, food := ts.seed(t, "alice", "100")
	rr := ts.do(t, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"account_id": account.ID, "transaction_type": "expense", "category_id": food.ID,
		"amount": "1", "description": "x", "transaction_date": "2024-07-04",
	})
	tx := decode[core.Transaction](t, rr)

	expectStatus(t, ts.upload(t, tx.ID, "alice", "file", "a.pdf", []byte("x")), http.StatusNotImplemented)
}
