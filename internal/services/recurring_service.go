package services

import (
	"context"
	"fmt"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// RecurringService manages recurring transaction templates.
type RecurringService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger
}

func NewRecurringService(storage *storage.SQLiteRepository, logger *log.Logger) *RecurringService {
	return &RecurringService{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentRecurring),
	}
}

func (s *RecurringService) checkReferences(ctx context.Context, r core.RecurringTransaction) error {
	a, err := s.storage.GetAccount(ctx, r.AccountID)
	if err != nil {
		return err
	}
	if a.Owner != r.Owner {
		return fmt.Errorf("account %d: %w", r.AccountID, core.ErrNotFound)
	}
	c, err := s.storage.GetCategory(ctx, r.CategoryID)
	if err != nil {
		return err
	}
	if err := r.Materialize(r.StartDate).CheckCategory(c); err != nil {
		return fmt.Errorf("category %d: %w", r.CategoryID, err)
	}
	return nil
}

// CreateRecurring stores an active template with no occurrences generated.
func (s *RecurringService) CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	r.IsActive = true
	r.LastGenerated = core.Date{}
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.checkReferences(ctx, r); err != nil {
		return core.RecurringTransaction{}, err
	}
	created, err := s.storage.CreateRecurring(ctx, r)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	s.logger.InfoContext(ctx, "Recurring template created",
		log.FieldOwner, created.Owner,
		log.FieldRecurringID, created.ID,
		"frequency", created.Frequency)
	return created, nil
}

func (s *RecurringService) GetRecurring(ctx context.Context, owner string, id int64) (core.RecurringTransaction, error) {
	r, err := s.storage.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	if r.Owner != owner {
		return core.RecurringTransaction{}, fmt.Errorf("recurring transaction %d: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *RecurringService) ListRecurring(ctx context.Context, owner string) ([]core.RecurringTransaction, error) {
	return s.storage.ListRecurring(ctx, owner)
}

// UpdateRecurring edits a template. The generation watermark is preserved.
func (s *RecurringService) UpdateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	current, err := s.GetRecurring(ctx, r.Owner, r.ID)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	r.LastGenerated = current.LastGenerated
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.checkReferences(ctx, r); err != nil {
		return core.RecurringTransaction{}, err
	}
	updated, err := s.storage.UpdateRecurring(ctx, r)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	updated.CreatedAt = current.CreatedAt
	return updated, nil
}

// DeleteRecurring removes the template. Transactions it generated remain.
func (s *RecurringService) DeleteRecurring(ctx context.Context, owner string, id int64) error {
	if _, err := s.GetRecurring(ctx, owner, id); err != nil {
		return err
	}
	return s.storage.DeleteRecurring(ctx, id)
}
