package sheets

import (
	"context"

	"conti/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror keeps a read-only copy of the ledger outside the
	// database, one row per transaction keyed by its ID.
	TransactionMirror interface {
		// Upsert writes the transaction's row, replacing an existing one
		// with the same ID.
		Upsert(ctx context.Context, t core.TransactionView) (rowRef string, err error)
		// Remove deletes the row of the transaction. A missing row is not an
		// error.
		Remove(ctx context.Context, id int64) error
	}

	// MirrorLister reads the mirrored rows back.
	MirrorLister interface {
		List(ctx context.Context) ([]Row, error)
	}
)

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "Date", "Type", "Account", "Destination", "Category", "Description", "Amount", "Owner"}

// Row is one mirrored transaction in display form.
type Row struct {
	ID          int64
	Date        string
	Type        string
	Account     string
	Destination string
	Category    string
	Description string
	Amount      string
	Owner       string
}

// NewRow flattens a transaction view into its mirror row.
func NewRow(t core.TransactionView) Row {
	return Row{
		ID:          t.ID,
		Date:        t.Date.String(),
		Type:        t.Type.Label(),
		Account:     t.AccountName,
		Destination: t.DestinationAccountName,
		Category:    t.CategoryName,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Owner:       t.Owner,
	}
}

// Values returns the row cells in Header order.
func (r Row) Values() []any {
	return []any{r.ID, r.Date, r.Type, r.Account, r.Destination, r.Category, r.Description, r.Amount, r.Owner}
}
