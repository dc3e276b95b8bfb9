package http

import "conti/internal/core"

// Request bodies. Server-managed fields (owner, ids, balances, timestamps)
// are never read from the client. PUT replaces the editable fields; an
// omitted is_active means active.

type accountRequest struct {
	Name           string           `json:"name"`
	Type           core.AccountType `json:"account_type"`
	Currency       core.Currency    `json:"currency"`
	InitialBalance core.Money       `json:"initial_balance"`
	IsActive       *bool            `json:"is_active"`
	Notes          string           `json:"notes"`
}

func (p accountRequest) account(owner string, id int64) core.Account {
	return core.Account{
		ID:             id,
		Owner:          owner,
		Name:           sanitizeInput(p.Name),
		Type:           p.Type,
		Currency:       p.Currency,
		InitialBalance: p.InitialBalance,
		IsActive:       boolOr(p.IsActive, true),
		Notes:          sanitizeInput(p.Notes),
	}
}

type categoryRequest struct {
	Name            string               `json:"name"`
	TransactionType core.TransactionType `json:"transaction_type"`
	Color           core.CategoryColor   `json:"color"`
	Icon            string               `json:"icon"`
	ParentID        *int64               `json:"parent_id"`
	IsActive        *bool                `json:"is_active"`
}

func (p categoryRequest) category(owner string, id int64) core.Category {
	return core.Category{
		ID:              id,
		Owner:           owner,
		Name:            sanitizeInput(p.Name),
		TransactionType: p.TransactionType,
		Color:           p.Color,
		Icon:            sanitizeInput(p.Icon),
		ParentID:        p.ParentID,
		IsActive:        boolOr(p.IsActive, true),
	}
}

type transactionRequest struct {
	AccountID            int64                `json:"account_id"`
	Type                 core.TransactionType `json:"transaction_type"`
	CategoryID           int64                `json:"category_id"`
	Amount               core.Money           `json:"amount"`
	Description          string               `json:"description"`
	Notes                string               `json:"notes"`
	Date                 core.Date            `json:"transaction_date"`
	DestinationAccountID *int64               `json:"destination_account_id"`
}

func (p transactionRequest) transaction(owner string, id int64) core.Transaction {
	return core.Transaction{
		ID:                   id,
		Owner:                owner,
		AccountID:            p.AccountID,
		Type:                 p.Type,
		CategoryID:           p.CategoryID,
		Amount:               p.Amount,
		Description:          sanitizeInput(p.Description),
		Notes:                sanitizeInput(p.Notes),
		Date:                 p.Date,
		DestinationAccountID: p.DestinationAccountID,
	}
}

type budgetRequest struct {
	CategoryID int64             `json:"category_id"`
	Amount     core.Money        `json:"amount"`
	Period     core.BudgetPeriod `json:"period"`
	Year       int               `json:"year"`
	Month      *int              `json:"month"`
	IsActive   *bool             `json:"is_active"`
}

func (p budgetRequest) budget(owner string, id int64) core.Budget {
	return core.Budget{
		ID:         id,
		Owner:      owner,
		CategoryID: p.CategoryID,
		Amount:     p.Amount,
		Period:     p.Period,
		Year:       p.Year,
		Month:      p.Month,
		IsActive:   boolOr(p.IsActive, true),
	}
}

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  core.Money      `json:"target_amount"`
	CurrentAmount core.Money      `json:"current_amount"`
	TargetDate    core.Date       `json:"target_date"`
	Status        core.GoalStatus `json:"status"`
	Notes         string          `json:"notes"`
}

func (p goalRequest) goal(owner string, id int64) core.Goal {
	return core.Goal{
		ID:            id,
		Owner:         owner,
		Name:          sanitizeInput(p.Name),
		TargetAmount:  p.TargetAmount,
		CurrentAmount: p.CurrentAmount,
		TargetDate:    p.TargetDate,
		Status:        p.Status,
		Notes:         sanitizeInput(p.Notes),
	}
}

type goalProgressRequest struct {
	CurrentAmount core.Money `json:"current_amount"`
}

type recurringRequest struct {
	AccountID   int64                `json:"account_id"`
	CategoryID  int64                `json:"category_id"`
	Type        core.TransactionType `json:"transaction_type"`
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Frequency   core.Frequency       `json:"frequency"`
	DayOfMonth  *int                 `json:"day_of_month"`
	StartDate   core.Date            `json:"start_date"`
	EndDate     core.Date            `json:"end_date"`
	IsActive    *bool                `json:"is_active"`
}

func (p recurringRequest) recurring(owner string, id int64) core.RecurringTransaction {
	return core.RecurringTransaction{
		ID:          id,
		Owner:       owner,
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Type:        p.Type,
		Amount:      p.Amount,
		Description: sanitizeInput(p.Description),
		Frequency:   p.Frequency,
		DayOfMonth:  p.DayOfMonth,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsActive:    boolOr(p.IsActive, true),
	}
}
