package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/hwouters/invoice-ledger/internal/ledger"
)

const (
	invoicesSheet = "Invoices"
	totalsSheet   = "Totals"
)

// writeXLSX writes the full ledger table plus a totals sheet aggregating
// base-currency amounts per tax year and category.
func writeXLSX(path string, records []*ledger.InvoiceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	if err := writeRow(f, invoicesSheet, 1, header); err != nil {
		return err
	}
	for i, r := range records {
		if err := writeRow(f, invoicesSheet, i+2, row(r)); err != nil {
			return err
		}
	}

	if err := writeTotals(f, records); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("addressing cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("writing cell %s: %w", cell, err)
		}
	}
	return nil
}

func writeTotals(f *excelize.File, records []*ledger.InvoiceRecord) error {
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("creating totals sheet: %w", err)
	}

	type group struct {
		taxYear  string
		category ledger.Category
	}
	totals := make(map[group]decimal.Decimal)
	for _, r := range records {
		g := group{taxYear: r.TaxYear, category: r.Category}
		totals[g] = totals[g].Add(r.AmountBase)
	}

	groups := make([]group, 0, len(totals))
	for g := range totals {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].taxYear != groups[j].taxYear {
			return groups[i].taxYear < groups[j].taxYear
		}
		return groups[i].category < groups[j].category
	})

	if err := writeRow(f, totalsSheet, 1, []string{"tax_year", "category", "total_base"}); err != nil {
		return err
	}
	for i, g := range groups {
		values := []string{g.taxYear, string(g.category), totals[g].StringFixed(2)}
		if err := writeRow(f, totalsSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}
