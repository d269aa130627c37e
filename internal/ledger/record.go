package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies an invoice by where it was found in the folder tree.
type Category string

const (
	CategoryIncome      Category = "Income"
	CategoryExpenditure Category = "Expenditure"
	CategoryOther       Category = "Other"
)

// RateProvenance records how an exchange rate was obtained. A fallback rate
// of 1.0 must stay distinguishable from a genuine 1:1 rate.
type RateProvenance string

const (
	// RateBase means the invoice currency is the base currency; no lookup happened.
	RateBase RateProvenance = "base"
	// RateLookup means the rate came from the historical rate service.
	RateLookup RateProvenance = "lookup"
	// RateFallback means the lookup failed and 1.0 was assumed.
	RateFallback RateProvenance = "fallback"
)

// InvoiceRecord is the ledger's unit of truth for a single ingested invoice.
// Records are created once and never mutated by the pipeline.
type InvoiceRecord struct {
	Fingerprint    string          `json:"fingerprint"`
	SourcePath     string          `json:"source_path"`
	Vendor         string          `json:"vendor"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceDate    string          `json:"invoice_date"` // YYYY-MM-DD when DateNormalized
	DateNormalized bool            `json:"date_normalized"`
	TaxYear        string          `json:"tax_year"`
	Category       Category        `json:"category"`
	CurrencyCode   string          `json:"currency_code"`
	AmountOriginal decimal.Decimal `json:"amount_original"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	RateProvenance RateProvenance  `json:"rate_provenance"`
	AmountBase     decimal.Decimal `json:"amount_base"`
	ProcessedAt    time.Time       `json:"processed_at"`
}
