// Package sheets exports grouped transaction views to a spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finboard/internal/views"
)

var ErrNothingToExport = errors.New("no transactions to export")

// Writer replaces the contents of one worksheet.
type Writer interface {
	WriteRows(ctx context.Context, rows [][]any) (WriteResult, error)
}

type WriteResult struct {
	// Range is the A1 range that was written, e.g. "History!A1:H7".
	Range string
	Rows  int
}

type ExportOptions struct {
	// FocalAccount switches amounts to that account's signed perspective.
	FocalAccount *int64
	// Now classifies rows as historical or upcoming; zero means time.Now.
	Now time.Time
	// AllowEmpty writes only the header when there is nothing to export.
	AllowEmpty bool
}

// Export renders groups and hands them to w.
func Export(ctx context.Context, w Writer, groups []views.DayGroup, opts ExportOptions) (WriteResult, error) {
	rows := Rows(groups, opts)
	if len(rows) == 1 && !opts.AllowEmpty {
		return WriteResult{}, ErrNothingToExport
	}
	res, err := w.WriteRows(ctx, rows)
	if err != nil {
		return WriteResult{}, fmt.Errorf("write %d rows: %w", len(rows), err)
	}
	return res, nil
}
