package sheets

import (
	"strconv"
	"time"

	"finboard/internal/core"
	"finboard/internal/views"
)

var Header = []any{"Day", "Description", "From", "To", "Amount", "Currency", "Category", "Status"}

var focalHeader = []any{"Day", "Description", "Counterparty", "Direction", "Amount", "Currency", "Category", "Status"}

// Rows flattens day groups into a header row followed by one row per
// transaction, in group order.
func Rows(groups []views.DayGroup, opts ExportOptions) [][]any {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	header := Header
	if opts.FocalAccount != nil {
		header = focalHeader
	}
	rows := [][]any{header}
	for _, g := range groups {
		for _, tx := range g.Transactions {
			rows = append(rows, row(g.Day, tx, opts.FocalAccount, now))
		}
	}
	return rows
}

func row(day string, tx core.Transaction, focal *int64, now time.Time) []any {
	category := ""
	if tx.CategoryID != nil {
		category = strconv.FormatInt(*tx.CategoryID, 10)
	}
	status := views.Classify(tx, now).String()

	if focal != nil {
		p := views.PerspectiveOf(tx, *focal)
		direction := "credit"
		if p.Direction == views.Debit {
			direction = "debit"
		}
		return []any{day, tx.Description, p.Counterparty.Name, direction,
			core.AmountDecimal(p.Amount).StringFixed(2), p.Currency, category, status}
	}
	return []any{day, tx.Description, tx.Source.Name, tx.Target.Name,
		core.AmountDecimal(tx.TargetAmount).StringFixed(2), tx.Target.Currency, category, status}
}
