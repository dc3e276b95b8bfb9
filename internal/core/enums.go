package core

type (
	AccountType     string
	Currency        string
	TransactionType string
	CategoryColor   string
	BudgetPeriod    string
	GoalStatus      string
	Frequency       string
)

const (
	AccountCash       AccountType = "cash"
	AccountBank       AccountType = "bank"
	AccountCreditCard AccountType = "credit_card"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
)

const (
	CurrencyUSD Currency = "USD"
	CurrencyCLP Currency = "CLP"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"

	DefaultCurrency = CurrencyCLP
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	ColorRed    CategoryColor = "#EF4444"
	ColorOrange CategoryColor = "#F59E0B"
	ColorGreen  CategoryColor = "#10B981"
	ColorBlue   CategoryColor = "#3B82F6"
	ColorPurple CategoryColor = "#8B5CF6"
	ColorPink   CategoryColor = "#EC4899"
	ColorGray   CategoryColor = "#6B7280"

	DefaultColor = ColorBlue
)

const (
	Monthly BudgetPeriod = "monthly"
	Yearly  BudgetPeriod = "yearly"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

const (
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	EveryMonth Frequency = "monthly"
	EveryYear  Frequency = "yearly"
)

var accountTypeLabels = map[AccountType]string{
	AccountCash:       "Cash",
	AccountBank:       "Bank Account",
	AccountCreditCard: "Credit Card",
	AccountSavings:    "Savings Account",
	AccountInvestment: "Investment Account",
}

var currencyLabels = map[Currency]string{
	CurrencyUSD: "US Dollar",
	CurrencyCLP: "Chilean Peso",
	CurrencyEUR: "Euro",
	CurrencyGBP: "British Pound",
}

var transactionTypeLabels = map[TransactionType]string{
	Income:   "Income",
	Expense:  "Expense",
	Transfer: "Transfer",
}

var colorLabels = map[CategoryColor]string{
	ColorRed:    "Red",
	ColorOrange: "Orange",
	ColorGreen:  "Green",
	ColorBlue:   "Blue",
	ColorPurple: "Purple",
	ColorPink:   "Pink",
	ColorGray:   "Gray",
}

var periodLabels = map[BudgetPeriod]string{
	Monthly: "Monthly",
	Yearly:  "Yearly",
}

var statusLabels = map[GoalStatus]string{
	GoalActive:    "Active",
	GoalCompleted: "Completed",
	GoalCancelled: "Cancelled",
}

var frequencyLabels = map[Frequency]string{
	Daily:      "Daily",
	Weekly:     "Weekly",
	EveryMonth: "Monthly",
	EveryYear:  "Yearly",
}

func (t AccountType) Valid() bool       { _, ok := accountTypeLabels[t]; return ok }
func (t AccountType) Label() string     { return accountTypeLabels[t] }
func (c Currency) Valid() bool          { _, ok := currencyLabels[c]; return ok }
func (c Currency) Label() string        { return currencyLabels[c] }
func (t TransactionType) Valid() bool   { _, ok := transactionTypeLabels[t]; return ok }
func (t TransactionType) Label() string { return transactionTypeLabels[t] }
func (c CategoryColor) Valid() bool     { _, ok := colorLabels[c]; return ok }
func (c CategoryColor) Label() string   { return colorLabels[c] }
func (p BudgetPeriod) Valid() bool      { _, ok := periodLabels[p]; return ok }
func (p BudgetPeriod) Label() string    { return periodLabels[p] }
func (s GoalStatus) Valid() bool        { _, ok := statusLabels[s]; return ok }
func (s GoalStatus) Label() string      { return statusLabels[s] }
func (f Frequency) Valid() bool         { _, ok := frequencyLabels[f]; return ok }
func (f Frequency) Label() string       { return frequencyLabels[f] }

// IsPolar reports whether t is a category polarity (income or expense).
func (t TransactionType) IsPolar() bool {
	return t == Income || t == Expense
}
