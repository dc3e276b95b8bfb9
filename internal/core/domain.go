package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxAccountName  = 100
	maxCategoryName = 100
	maxIconName     = 50
	maxDescription  = 255
	maxGoalName     = 200
	maxDayOfMonth   = 31
	minYear         = 1
	maxYear         = 9999
)

type (
	Account struct {
		ID             int64       `json:"id"`
		Owner          string      `json:"owner"`
		Name           string      `json:"name"`
		Type           AccountType `json:"account_type"`
		Currency       Currency    `json:"currency"`
		InitialBalance Money       `json:"initial_balance"`
		CurrentBalance Money       `json:"current_balance"`
		IsActive       bool        `json:"is_active"`
		Notes          string      `json:"notes"`
		CreatedAt      time.Time   `json:"created_at"`
		UpdatedAt      time.Time   `json:"updated_at"`
	}

	Category struct {
		ID              int64           `json:"id"`
		Name            string          `json:"name"`
		TransactionType TransactionType `json:"transaction_type"`
		Color           CategoryColor   `json:"color"`
		Icon            string          `json:"icon"`
		ParentID        *int64          `json:"parent_id,omitempty"`
		Owner           string          `json:"owner,omitempty"` // empty for default categories
		IsActive        bool            `json:"is_active"`
		CreatedAt       time.Time       `json:"created_at"`
		UpdatedAt       time.Time       `json:"updated_at"`
	}

	Transaction struct {
		ID                   int64           `json:"id"`
		Owner                string          `json:"owner"`
		AccountID            int64           `json:"account_id"`
		Type                 TransactionType `json:"transaction_type"`
		CategoryID           int64           `json:"category_id"`
		Amount               Money           `json:"amount"`
		Description          string          `json:"description"`
		Notes                string          `json:"notes"`
		Date                 Date            `json:"transaction_date"`
		DestinationAccountID *int64          `json:"destination_account_id,omitempty"`
		ReceiptKey           string          `json:"receipt,omitempty"`
		RecurringID          *int64          `json:"recurring_transaction_id,omitempty"`
		CreatedAt            time.Time       `json:"created_at"`
		UpdatedAt            time.Time       `json:"updated_at"`
	}

	// TransactionView is a transaction joined with the names of the rows it
	// references, as served to listing screens.
	TransactionView struct {
		Transaction
		AccountName            string `json:"account_name"`
		CategoryName           string `json:"category_name"`
		DestinationAccountName string `json:"destination_account_name,omitempty"`
	}

	TransactionPage struct {
		Items    []TransactionView `json:"items"`
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
		Total    int64             `json:"total"`
	}

	Budget struct {
		ID         int64        `json:"id"`
		Owner      string       `json:"owner"`
		CategoryID int64        `json:"category_id"`
		Amount     Money        `json:"amount"`
		Period     BudgetPeriod `json:"period"`
		Year       int          `json:"year"`
		Month      *int         `json:"month,omitempty"`
		IsActive   bool         `json:"is_active"`
		CreatedAt  time.Time    `json:"created_at"`
		UpdatedAt  time.Time    `json:"updated_at"`
	}

	Goal struct {
		ID            int64      `json:"id"`
		Owner         string     `json:"owner"`
		Name          string     `json:"name"`
		TargetAmount  Money      `json:"target_amount"`
		CurrentAmount Money      `json:"current_amount"`
		TargetDate    Date       `json:"target_date"`
		Status        GoalStatus `json:"status"`
		Notes         string     `json:"notes"`
		CreatedAt     time.Time  `json:"created_at"`
		UpdatedAt     time.Time  `json:"updated_at"`
	}

	RecurringTransaction struct {
		ID            int64           `json:"id"`
		Owner         string          `json:"owner"`
		AccountID     int64           `json:"account_id"`
		CategoryID    int64           `json:"category_id"`
		Type          TransactionType `json:"transaction_type"`
		Amount        Money           `json:"amount"`
		Description   string          `json:"description"`
		Frequency     Frequency       `json:"frequency"`
		DayOfMonth    *int            `json:"day_of_month,omitempty"`
		StartDate     Date            `json:"start_date"`
		EndDate       Date            `json:"end_date"`
		IsActive      bool            `json:"is_active"`
		LastGenerated Date            `json:"last_generated"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}
)

func validateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return ErrMissingOwner
	}
	return nil
}

func validateName(name string, max int) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > max {
		return Invalidf("name too long (max %d characters)", max)
	}
	return nil
}

func validateAmount(m Money) error {
	if !m.InRange() {
		return ErrInvalidAmount
	}
	if m.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ApplyDefaults fills fields left empty by the caller.
func (a *Account) ApplyDefaults() {
	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}
}

func (a Account) Validate() error {
	if err := validateOwner(a.Owner); err != nil {
		return err
	}
	if err := validateName(a.Name, maxAccountName); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if !a.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if !a.InitialBalance.InRange() {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Type.Label())
}

func (c *Category) ApplyDefaults() {
	if c.TransactionType == "" {
		c.TransactionType = Expense
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
}

func (c Category) Validate() error {
	if err := validateName(c.Name, maxCategoryName); err != nil {
		return err
	}
	if !c.TransactionType.IsPolar() {
		return ErrInvalidTxType
	}
	if !c.Color.Valid() {
		return ErrInvalidColor
	}
	if len(c.Icon) > maxIconName {
		return Invalidf("icon name too long (max %d characters)", maxIconName)
	}
	if c.ParentID != nil && c.ID != 0 && *c.ParentID == c.ID {
		return ErrSelfParent
	}
	return nil
}

// IsGlobal reports whether the category is a default one shared by all owners.
func (c Category) IsGlobal() bool { return c.Owner == "" }

// VisibleTo reports whether owner may file transactions under c.
func (c Category) VisibleTo(owner string) bool {
	return c.IsGlobal() || c.Owner == owner
}

func (t Transaction) Validate() error {
	if err := validateOwner(t.Owner); err != nil {
		return err
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if !t.Type.Valid() {
		return ErrInvalidTxType
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if len(t.Description) > maxDescription {
		return Invalidf("description too long (max %d characters)", maxDescription)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	switch {
	case t.Type == Transfer && t.DestinationAccountID == nil:
		return ErrMissingDestination
	case t.Type != Transfer && t.DestinationAccountID != nil:
		return ErrUnexpectedDestination
	case t.DestinationAccountID != nil && *t.DestinationAccountID == t.AccountID:
		return ErrSelfTransfer
	}
	return nil
}

// CheckCategory verifies the polarity rule: income and expense transactions
// must be filed under a category of the same type. Transfers accept any.
func (t Transaction) CheckCategory(c Category) error {
	if !c.VisibleTo(t.Owner) {
		return ErrNotFound
	}
	if t.Type != Transfer && c.TransactionType != t.Type {
		return ErrCategoryPolarity
	}
	return nil
}

// AffectedAccounts returns the accounts whose balance depends on t.
func (t Transaction) AffectedAccounts() []int64 {
	ids := []int64{t.AccountID}
	if t.DestinationAccountID != nil {
		ids = append(ids, *t.DestinationAccountID)
	}
	return ids
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s - %s - %s", t.Type.Label(), t.Amount, t.Date)
}

func (b *Budget) ApplyDefaults() {
	if b.Period == "" {
		b.Period = Monthly
	}
}

func (b Budget) Validate() error {
	if err := validateOwner(b.Owner); err != nil {
		return err
	}
	if b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := validateAmount(b.Amount); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.Year < minYear || b.Year > maxYear {
		return ErrInvalidYear
	}
	switch b.Period {
	case Monthly:
		if b.Month == nil || *b.Month < 1 || *b.Month > 12 {
			return ErrInvalidMonth
		}
	case Yearly:
		if b.Month != nil {
			return Invalidf("yearly budgets must not set a month")
		}
	}
	return nil
}

// DateRange returns the first and last day covered by the budget, both
// inclusive. The last day stays inside the budget year, so year 9999 still
// compares correctly as text.
func (b Budget) DateRange() (first, last Date) {
	if b.Period == Monthly && b.Month != nil {
		first = NewDate(b.Year, *b.Month, 1)
		return first, NewDate(b.Year, *b.Month, DaysInMonth(b.Year, *b.Month))
	}
	return NewDate(b.Year, 1, 1), NewDate(b.Year, 12, 31)
}

// Label renders the budget as "<category> - YYYY/MM - amount" or
// "<category> - YYYY - amount".
func (b Budget) Label(categoryName string) string {
	if b.Month != nil {
		return fmt.Sprintf("%s - %d/%02d - %s", categoryName, b.Year, *b.Month, b.Amount)
	}
	return fmt.Sprintf("%s - %d - %s", categoryName, b.Year, b.Amount)
}

func (g *Goal) ApplyDefaults() {
	if g.Status == "" {
		g.Status = GoalActive
	}
}

func (g Goal) Validate() error {
	if err := validateOwner(g.Owner); err != nil {
		return err
	}
	if err := validateName(g.Name, maxGoalName); err != nil {
		return err
	}
	if err := validateAmount(g.TargetAmount); err != nil {
		return err
	}
	if err := validateAmount(g.CurrentAmount); err != nil {
		return err
	}
	if err := g.TargetDate.Validate(); err != nil {
		return err
	}
	if !g.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// PercentageComplete returns current / target x 100, 0 for a zero target.
func (g Goal) PercentageComplete() float64 {
	return Percentage(g.CurrentAmount, g.TargetAmount)
}

// IsComplete reports whether the target has been reached.
func (g Goal) IsComplete() bool {
	return g.CurrentAmount.Cmp(g.TargetAmount) >= 0
}

func (g Goal) String() string {
	return fmt.Sprintf("%s - %s/%s", g.Name, g.CurrentAmount, g.TargetAmount)
}

func (r RecurringTransaction) Validate() error {
	if err := validateOwner(r.Owner); err != nil {
		return err
	}
	if r.AccountID <= 0 {
		return ErrMissingAccount
	}
	if r.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if !r.Type.IsPolar() {
		return ErrInvalidTxType
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if len(r.Description) > maxDescription {
		return Invalidf("description too long (max %d characters)", maxDescription)
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.DayOfMonth != nil {
		if r.Frequency != EveryMonth {
			return Invalidf("day of month is only allowed on monthly templates")
		}
		if *r.DayOfMonth < 1 || *r.DayOfMonth > maxDayOfMonth {
			return ErrInvalidDayOfMonth
		}
	}
	if err := r.StartDate.Validate(); err != nil {
		return Invalidf("invalid start date: %v", err)
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return Invalidf("end date must not be before start date")
	}
	return nil
}

// ActiveOn reports whether the template may produce a transaction on day.
func (r RecurringTransaction) ActiveOn(day Date) bool {
	if !r.IsActive {
		return false
	}
	if day.Before(r.StartDate) {
		return false
	}
	if !r.EndDate.IsZero() && day.After(r.EndDate) {
		return false
	}
	return true
}

// Materialize builds the concrete transaction the template produces on day.
func (r RecurringTransaction) Materialize(day Date) Transaction {
	id := r.ID
	return Transaction{
		Owner:       r.Owner,
		AccountID:   r.AccountID,
		Type:        r.Type,
		CategoryID:  r.CategoryID,
		Amount:      r.Amount,
		Description: r.Description,
		Date:        day,
		RecurringID: &id,
	}
}

func (r RecurringTransaction) String() string {
	return fmt.Sprintf("%s - %s", r.Description, r.Frequency.Label())
}
