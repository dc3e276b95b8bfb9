package google

import (
	"testing"
	"time"

	"conti/internal/core"
)

func view(id int64) core.TransactionView {
	return core.TransactionView{
		Transaction: core.Transaction{
			ID: id, Owner: "alice", Type: core.Expense, Description: "lunch",
			Amount: core.MustParseMoney("12.5"), Date: core.NewDate(2024, 5, 1),
		},
		AccountName:  "Checking",
		CategoryName: "Food",
	}
}

func TestBuildIndex(t *testing.T) {
	tests := []struct {
		name      string
		values    [][]any
		wantIndex map[int64]int
		wantNext  int
	}{
		{
			name:      "empty sheet",
			wantIndex: map[int64]int{},
			wantNext:  2,
		},
		{
			name:      "header only",
			values:    [][]any{{"ID"}},
			wantIndex: map[int64]int{},
			wantNext:  2,
		},
		{
			name:      "rows with a cleared gap",
			values:    [][]any{{"ID"}, {"7"}, {}, {"9"}},
			wantIndex: map[int64]int{7: 2, 9: 4},
			wantNext:  5,
		},
		{
			name:      "numeric cells and junk",
			values:    [][]any{{"ID"}, {float64(3)}, {"note"}, {" 4 "}},
			wantIndex: map[int64]int{3: 2, 4: 4},
			wantNext:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, next := buildIndex(tt.values)
			if next != tt.wantNext {
				t.Errorf("next = %d, want %d", next, tt.wantNext)
			}
			if len(index) != len(tt.wantIndex) {
				t.Fatalf("index = %v, want %v", index, tt.wantIndex)
			}
			for id, row := range tt.wantIndex {
				if index[id] != row {
					t.Errorf("index[%d] = %d, want %d", id, index[id], row)
				}
			}
		})
	}
}

func TestParseRows(t *testing.T) {
	values := [][]any{
		{"12", "2024-05-01", "Expense", "Checking", "", "Food", "lunch", "12,5", "alice"},
		{},
		{"not an id", "x"},
		{"13", "2024-05-02", "Transfer", "Checking", "Savings"},
	}

	rows := parseRows(values)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Amount != "12.50" || rows[0].Owner != "alice" || rows[0].Category != "Food" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Destination != "Savings" || rows[1].Amount != "" {
		t.Errorf("unexpected short row: %+v", rows[1])
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("2024 Transactions", 5); got != "2024 Transactions!A5:I5" {
		t.Errorf("rowRange() = %q", got)
	}
}

func TestInvalidateIndex(t *testing.T) {
	c := &Client{cacheValidDuration: 10 * time.Minute}

	c.mu.Lock()
	c.index = map[int64]int{1: 2}
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.invalidateIndexLocked()
	valid := c.index != nil && time.Now().Before(c.cacheExpiresAt)
	c.mu.Unlock()

	if valid {
		t.Error("index should be stale after invalidation")
	}
}
