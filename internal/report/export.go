package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/hwouters/invoice-ledger/internal/ledger"
)

// Column order is fixed: consumers of the report rely on it.
var header = []string{
	"category",
	"tax_year",
	"vendor",
	"invoice_number",
	"invoice_date",
	"amount_original",
	"currency",
	"exchange_rate",
	"rate_provenance",
	"amount_base",
}

// Exporter renders the full ledger into summary reports. Each export reads
// every record and overwrites the output files in full.
type Exporter struct {
	db       ledger.DB
	csvPath  string
	xlsxPath string // empty disables the XLSX report
}

// NewExporter creates an Exporter writing to csvPath and, when xlsxPath is
// non-empty, an XLSX workbook as well.
func NewExporter(db ledger.DB, csvPath, xlsxPath string) *Exporter {
	return &Exporter{
		db:       db,
		csvPath:  csvPath,
		xlsxPath: xlsxPath,
	}
}

// Export regenerates all configured reports from the current ledger state.
func (e *Exporter) Export() error {
	records, err := e.db.ListAll()
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}
	sortRecords(records)

	if err := writeCSV(e.csvPath, records); err != nil {
		return err
	}
	if e.xlsxPath != "" {
		if err := writeXLSX(e.xlsxPath, records); err != nil {
			return err
		}
	}
	return nil
}

// sortRecords orders records for stable report output regardless of
// ingestion order: tax year, then category, then date, then fingerprint as
// a tiebreaker.
func sortRecords(records []*ledger.InvoiceRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.TaxYear != b.TaxYear {
			return a.TaxYear < b.TaxYear
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.InvoiceDate != b.InvoiceDate {
			return a.InvoiceDate < b.InvoiceDate
		}
		return a.Fingerprint < b.Fingerprint
	})
}

func row(r *ledger.InvoiceRecord) []string {
	return []string{
		string(r.Category),
		r.TaxYear,
		r.Vendor,
		r.InvoiceNumber,
		r.InvoiceDate,
		r.AmountOriginal.StringFixed(2),
		r.CurrencyCode,
		r.ExchangeRate.String(),
		string(r.RateProvenance),
		r.AmountBase.StringFixed(2),
	}
}

func writeCSV(path string, records []*ledger.InvoiceRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(row(r)); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	return nil
}
