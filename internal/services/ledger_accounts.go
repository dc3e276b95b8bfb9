package services

import (
	"context"
	"fmt"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// CreateAccount stores a new, active account whose balance starts at the
// initial balance.
func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ApplyDefaults()
	a.IsActive = true
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	created, err := s.storage.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.logger.InfoContext(ctx, "Account created",
		log.FieldOwner, created.Owner,
		log.FieldAccountID, created.ID)
	return created, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, owner string, id int64) (core.Account, error) {
	a, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if a.Owner != owner {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return a, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, owner)
}

// UpdateAccount edits name, type, currency, notes, active flag and initial
// balance. A new initial balance shifts the cached balance accordingly.
func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	unlock := s.locks.lock(a.ID)
	defer unlock()

	var updated core.Account
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		current, err := ownedAccount(ctx, q, a.Owner, a.ID)
		if err != nil {
			return err
		}
		if updated, err = q.UpdateAccount(ctx, a); err != nil {
			return err
		}
		updated.CreatedAt = current.CreatedAt
		updated.CurrentBalance = current.CurrentBalance
		if current.InitialBalance.Equal(a.InitialBalance) {
			return nil
		}
		updated.CurrentBalance, err = recompute(ctx, q, a.ID)
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return updated, nil
}

// DeleteAccount fails with core.ErrConflict while any transaction or
// recurring template still references the account.
func (s *LedgerService) DeleteAccount(ctx context.Context, owner string, id int64) error {
	if _, err := s.GetAccount(ctx, owner, id); err != nil {
		return err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Account deleted",
		log.FieldOwner, owner,
		log.FieldAccountID, id)
	return nil
}
