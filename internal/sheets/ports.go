package sheets

import (
	"context"

	"mybudget/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter appends one transaction as a spreadsheet row.
	TransactionExporter interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)

// Header is the column layout written by every exporter.
var Header = []any{"Date", "Type", "Description", "Amount", "Category"}

// Row renders t in Header order. The amount is a plain decimal so the sheet
// parses it as a number.
func Row(t core.Transaction) []any {
	name, _ := t.DisplayCategory()
	return []any{
		t.Date.Format("2006-01-02"),
		string(t.Type),
		t.Description,
		core.FormatCents(t.Amount.Cents),
		name,
	}
}
