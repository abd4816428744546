// Package export writes reconciled receipts to spreadsheet reports.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/receipt-reconciler/internal/receipt"
)

const (
	receiptsSheet = "Receipts"
	itemsSheet    = "Items"
)

var (
	receiptHeaders = []string{"ID", "Source", "Merchant", "Date", "Subtotal", "Tax", "Tip", "Total", "State", "Interpretation", "Warnings"}
	itemHeaders    = []string{"Receipt ID", "Name", "Qty", "Unit Price", "Line Total", "Needs Manual Price"}
)

// WriteXLSX writes a workbook with one row per receipt on the Receipts sheet
// and one row per retained line item on the Items sheet.
func WriteXLSX(w io.Writer, results []*receipt.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with a default Sheet1
	if err := f.SetSheetName(f.GetSheetName(0), receiptsSheet); err != nil {
		return fmt.Errorf("naming receipts sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return fmt.Errorf("creating items sheet: %w", err)
	}

	if err := writeRow(f, receiptsSheet, 1, toCells(receiptHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, itemsSheet, 1, toCells(itemHeaders)); err != nil {
		return err
	}

	receiptRow, itemRow := 2, 2
	for _, res := range results {
		r := res.Receipt

		warnings := make([]string, 0, len(res.Diagnostics.Warnings))
		for _, warn := range res.Diagnostics.Warnings {
			warnings = append(warnings, warn.String())
		}

		err := writeRow(f, receiptsSheet, receiptRow, []any{
			res.ID,
			res.Source,
			r.Merchant,
			r.Date,
			r.Subtotal,
			r.Tax,
			r.Tip,
			r.Total,
			string(res.State),
			string(res.Pricing.Interpretation),
			strings.Join(warnings, "; "),
		})
		if err != nil {
			return err
		}
		receiptRow++

		for _, it := range r.Items {
			err := writeRow(f, itemsSheet, itemRow, []any{
				res.ID,
				it.Name,
				it.Quantity,
				it.UnitPrice,
				it.LinePrice,
				it.NeedsManualPrice,
			})
			if err != nil {
				return err
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(receiptsSheet, "A", "A", 38) // id
	_ = f.SetColWidth(receiptsSheet, "B", "C", 28) // source, merchant
	_ = f.SetColWidth(receiptsSheet, "K", "K", 60) // warnings
	_ = f.SetColWidth(itemsSheet, "A", "A", 38)
	_ = f.SetColWidth(itemsSheet, "B", "B", 32)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(headers []string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
