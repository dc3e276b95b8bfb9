package core

// LedgerTotals are the per-type sums over one account's transactions.
type LedgerTotals struct {
	Income      Money
	Expense     Money
	TransferOut Money
	TransferIn  Money
}

// Balance applies the sign rules to the initial balance:
//
//	initial + income - expense - transfers out + transfers in
//
// Transfers move money between accounts; the amount is conserved.
func (t LedgerTotals) Balance(initial Money) Money {
	return initial.
		Add(t.Income).
		Sub(t.Expense).
		Sub(t.TransferOut).
		Add(t.TransferIn)
}

// BudgetProgress is the derived view of a budget over its period.
type BudgetProgress struct {
	Budget         Budget  `json:"budget"`
	CategoryName   string  `json:"category_name"`
	Spent          Money   `json:"spent_amount"`
	Remaining      Money   `json:"remaining_amount"`
	PercentageUsed float64 `json:"percentage_used"`
	OverLimit      bool    `json:"over_limit"`
}

// NewBudgetProgress derives the metrics for b given the spent amount.
func NewBudgetProgress(b Budget, categoryName string, spent Money) BudgetProgress {
	return BudgetProgress{
		Budget:         b,
		CategoryName:   categoryName,
		Spent:          spent,
		Remaining:      b.Amount.Sub(spent),
		PercentageUsed: PercentageUsed(spent, b.Amount),
		OverLimit:      spent.Cmp(b.Amount) > 0,
	}
}

// PercentageUsed is spent / limit x 100, 0 when the limit is 0.
func PercentageUsed(spent, limit Money) float64 {
	return Percentage(spent, limit)
}

// GoalProgress is the derived view of a goal.
type GoalProgress struct {
	Goal               Goal    `json:"goal"`
	PercentageComplete float64 `json:"percentage_complete"`
	IsComplete         bool    `json:"is_complete"`
}

func NewGoalProgress(g Goal) GoalProgress {
	return GoalProgress{
		Goal:               g,
		PercentageComplete: g.PercentageComplete(),
		IsComplete:         g.IsComplete(),
	}
}
