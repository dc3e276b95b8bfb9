package services

import (
	"context"
	"fmt"
	"time"

	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

const (
	categoryCacheSize = 512
	categoryCacheTTL  = 10 * time.Minute
)

// CategoryService manages the category tree. Lookups used for path
// resolution go through an LRU cache that every write purges.
type CategoryService struct {
	storage *storage.SQLiteRepository
	cache   cache.Cache[int64, core.Category]
	logger  *log.Logger
}

func NewCategoryService(storage *storage.SQLiteRepository, categories cache.Cache[int64, core.Category], logger *log.Logger) *CategoryService {
	if categories == nil {
		categories = cache.NewLRUCache[int64, core.Category](categoryCacheSize, categoryCacheTTL)
	}
	return &CategoryService{
		storage: storage,
		cache:   categories,
		logger:  logger.WithComponent(log.ComponentCategory),
	}
}

func (s *CategoryService) lookup(ctx context.Context) core.CategoryLookup {
	return func(id int64) (core.Category, error) {
		if c, ok := s.cache.Get(id); ok {
			return c, nil
		}
		c, err := s.storage.GetCategory(ctx, id)
		if err != nil {
			return core.Category{}, err
		}
		s.cache.Set(id, c)
		return c, nil
	}
}

// GetCategory returns a default category or one owned by owner.
func (s *CategoryService) GetCategory(ctx context.Context, owner string, id int64) (core.Category, error) {
	c, err := s.lookup(ctx)(id)
	if err != nil {
		return core.Category{}, err
	}
	if !c.VisibleTo(owner) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}

// FullPath renders the category with all its ancestors, e.g. "Home > Utilities > Power".
func (s *CategoryService) FullPath(ctx context.Context, owner string, id int64) (string, error) {
	c, err := s.GetCategory(ctx, owner, id)
	if err != nil {
		return "", err
	}
	return core.FullPath(c, s.lookup(ctx))
}

func (s *CategoryService) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, owner)
}

// ListSubcategories returns the direct children of parentID visible to owner.
func (s *CategoryService) ListSubcategories(ctx context.Context, owner string, parentID int64) ([]core.Category, error) {
	if _, err := s.GetCategory(ctx, owner, parentID); err != nil {
		return nil, err
	}
	children, err := s.storage.ListSubcategories(ctx, parentID)
	if err != nil {
		return nil, err
	}
	visible := children[:0]
	for _, c := range children {
		if c.VisibleTo(owner) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// CreateCategory stores an active category. An empty owner creates a default
// category shared by everybody.
func (s *CategoryService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ApplyDefaults()
	c.IsActive = true
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := core.CheckParent(c, s.lookup(ctx)); err != nil {
		return core.Category{}, err
	}

	created, err := s.storage.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category created",
		log.FieldOwner, created.Owner,
		log.FieldCategoryID, created.ID)
	return created, nil
}

// UpdateCategory edits a category owned by c.Owner. Default categories are
// read-only. Changing the type is refused while subcategories, transactions
// or templates still depend on the old one.
func (s *CategoryService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	current, err := s.ownedCategory(ctx, c.Owner, c.ID)
	if err != nil {
		return core.Category{}, err
	}

	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := core.CheckParent(c, s.lookup(ctx)); err != nil {
		return core.Category{}, err
	}

	var updated core.Category
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		if c.TransactionType != current.TransactionType {
			children, err := q.ListSubcategories(ctx, c.ID)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return core.ErrCategoryPolarity
			}
			used, err := q.CategoryInUse(ctx, c.ID)
			if err != nil {
				return err
			}
			if used > 0 {
				return core.Conflictf("category %d is used by %d transactions or templates of type %s",
					c.ID, used, current.TransactionType)
			}
		}
		var err error
		updated, err = q.UpdateCategory(ctx, c)
		return err
	})
	if err != nil {
		return core.Category{}, err
	}
	updated.CreatedAt = current.CreatedAt
	s.cache.Purge()
	return updated, nil
}

// DeleteCategory removes an owned category together with its subcategories.
// It fails with core.ErrConflict while transactions or templates use any of
// them.
func (s *CategoryService) DeleteCategory(ctx context.Context, owner string, id int64) error {
	if _, err := s.ownedCategory(ctx, owner, id); err != nil {
		return err
	}
	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.cache.Purge()
	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldOwner, owner,
		log.FieldCategoryID, id)
	return nil
}

func (s *CategoryService) ownedCategory(ctx context.Context, owner string, id int64) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.IsGlobal() || c.Owner != owner {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return c, nil
}
