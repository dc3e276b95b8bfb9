// Package memory is an in-process TransactionMirror for development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"conti/internal/core"
	"conti/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows map[int64]sheets.Row
}

var (
	_ sheets.TransactionMirror = (*Store)(nil)
	_ sheets.MirrorLister      = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: make(map[int64]sheets.Row)}
}

// Upsert stores the row and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, t core.TransactionView) (string, error) {
	if t.ID <= 0 {
		return "", fmt.Errorf("transaction without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[t.ID] = sheets.NewRow(t)
	return fmt.Sprintf("mem:%d", t.ID), nil
}

func (s *Store) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// List returns the rows ordered by transaction ID.
func (s *Store) List(_ context.Context) ([]sheets.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b sheets.Row) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
