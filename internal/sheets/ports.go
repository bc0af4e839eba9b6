// Package sheets defines the spreadsheet export ports.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Columns of an exported transaction row, in order.
var Header = []string{"Date", "Title", "Type", "Amount", "Category", "Description", "ID", "Category ID"}

type (
	// TransactionExporter mirrors transactions into a spreadsheet, one row
	// per transaction keyed by transaction id.
	TransactionExporter interface {
		// Export writes t, replacing its existing row if there is one.
		Export(ctx context.Context, t core.Transaction) (rowRef string, err error)
		// Remove clears the row of a transaction. Missing rows are not an error.
		Remove(ctx context.Context, transactionID int64) error
		// RemoveCategory clears every row of a category and reports how many.
		RemoveCategory(ctx context.Context, categoryID int64) (int, error)
	}
)

// Row renders t in Header order.
func Row(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		t.Title,
		string(t.Type),
		t.Amount,
		t.Category.Name,
		t.Description,
		t.ID,
		t.Category.ID,
	}
}
