package services

import (
	"context"
	"fmt"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// PlanningService manages budgets and savings goals. Their metrics are
// derived on every read and never stored.
type PlanningService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger
}

func NewPlanningService(storage *storage.SQLiteRepository, logger *log.Logger) *PlanningService {
	return &PlanningService{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentPlanning),
	}
}

// SpentAmount sums the owner's expenses in the budget's category over its
// period: the calendar month for monthly budgets, the year for yearly ones.
func (s *PlanningService) SpentAmount(ctx context.Context, b core.Budget) (core.Money, error) {
	first, last := b.DateRange()
	return s.storage.SumExpenses(ctx, b.Owner, b.CategoryID, first, last)
}

// BudgetStatus returns the budget with spent, remaining and percentage used.
func (s *PlanningService) BudgetStatus(ctx context.Context, owner string, id int64) (core.BudgetProgress, error) {
	b, err := s.GetBudget(ctx, owner, id)
	if err != nil {
		return core.BudgetProgress{}, err
	}
	return s.progress(ctx, b)
}

// ListBudgetStatus is BudgetStatus for every budget of the owner.
func (s *PlanningService) ListBudgetStatus(ctx context.Context, owner string) ([]core.BudgetProgress, error) {
	budgets, err := s.storage.ListBudgets(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		p, err := s.progress(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PlanningService) progress(ctx context.Context, b core.Budget) (core.BudgetProgress, error) {
	spent, err := s.SpentAmount(ctx, b)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("budget %d: %w", b.ID, err)
	}
	c, err := s.storage.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("budget %d: %w", b.ID, err)
	}
	return core.NewBudgetProgress(b, c.Name, spent), nil
}

func (s *PlanningService) checkBudgetCategory(ctx context.Context, b core.Budget) error {
	c, err := s.storage.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return err
	}
	if !c.VisibleTo(b.Owner) {
		return fmt.Errorf("category %d: %w", b.CategoryID, core.ErrNotFound)
	}
	return nil
}

// CreateBudget stores an active budget. A second budget for the same owner,
// category and period fails with core.ErrConflict.
func (s *PlanningService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ApplyDefaults()
	b.IsActive = true
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkBudgetCategory(ctx, b); err != nil {
		return core.Budget{}, err
	}
	created, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldOwner, created.Owner,
		log.FieldCategoryID, created.CategoryID,
		log.FieldAmount, created.Amount.String())
	return created, nil
}

func (s *PlanningService) GetBudget(ctx context.Context, owner string, id int64) (core.Budget, error) {
	b, err := s.storage.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if b.Owner != owner {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *PlanningService) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, owner)
}

func (s *PlanningService) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ApplyDefaults()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	current, err := s.GetBudget(ctx, b.Owner, b.ID)
	if err != nil {
		return core.Budget{}, err
	}
	if err := s.checkBudgetCategory(ctx, b); err != nil {
		return core.Budget{}, err
	}
	updated, err := s.storage.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	updated.CreatedAt = current.CreatedAt
	return updated, nil
}

func (s *PlanningService) DeleteBudget(ctx context.Context, owner string, id int64) error {
	if _, err := s.GetBudget(ctx, owner, id); err != nil {
		return err
	}
	return s.storage.DeleteBudget(ctx, id)
}

func (s *PlanningService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ApplyDefaults()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.storage.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}
	s.logger.InfoContext(ctx, "Goal created",
		log.FieldOwner, created.Owner,
		log.FieldAmount, created.TargetAmount.String())
	return created, nil
}

func (s *PlanningService) GetGoal(ctx context.Context, owner string, id int64) (core.Goal, error) {
	g, err := s.storage.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, err
	}
	if g.Owner != owner {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
	}
	return g, nil
}

// GoalStatus returns the goal with its completion metrics.
func (s *PlanningService) GoalStatus(ctx context.Context, owner string, id int64) (core.GoalProgress, error) {
	g, err := s.GetGoal(ctx, owner, id)
	if err != nil {
		return core.GoalProgress{}, err
	}
	return core.NewGoalProgress(g), nil
}

func (s *PlanningService) ListGoals(ctx context.Context, owner string) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, owner)
}

func (s *PlanningService) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ApplyDefaults()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	current, err := s.GetGoal(ctx, g.Owner, g.ID)
	if err != nil {
		return core.Goal{}, err
	}
	updated, err := s.storage.UpdateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}
	updated.CreatedAt = current.CreatedAt
	return updated, nil
}

// UpdateGoalProgress sets the amount saved so far. Status is left to the
// owner; reaching the target does not complete the goal.
func (s *PlanningService) UpdateGoalProgress(ctx context.Context, owner string, id int64, current core.Money) (core.GoalProgress, error) {
	g, err := s.GetGoal(ctx, owner, id)
	if err != nil {
		return core.GoalProgress{}, err
	}
	g.CurrentAmount = current
	if err := g.Validate(); err != nil {
		return core.GoalProgress{}, err
	}
	updated, err := s.storage.UpdateGoal(ctx, g)
	if err != nil {
		return core.GoalProgress{}, err
	}
	return core.NewGoalProgress(updated), nil
}

func (s *PlanningService) DeleteGoal(ctx context.Context, owner string, id int64) error {
	if _, err := s.GetGoal(ctx, owner, id); err != nil {
		return err
	}
	return s.storage.DeleteGoal(ctx, id)
}
