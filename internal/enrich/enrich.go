package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hwouters/invoice-ledger/internal/extraction"
	"github.com/hwouters/invoice-ledger/internal/ledger"
)

// dateFormats are the invoice date layouts accepted for normalization, in
// order of preference. UK day-first layouts come before US month-first.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2 January 2006",
	"January 2, 2006",
}

// Enriched carries the derived fields computed from a validated candidate.
type Enriched struct {
	InvoiceDate    string // YYYY-MM-DD when DateNormalized
	DateNormalized bool
	TaxYear        string
	CurrencyCode   string
	AmountOriginal decimal.Decimal
	ExchangeRate   decimal.Decimal
	RateProvenance ledger.RateProvenance
	AmountBase     decimal.Decimal
}

// Enricher derives tax year, normalized date and base-currency amount for
// candidate records.
type Enricher struct {
	baseCurrency string
	rates        RateSource
}

// NewEnricher creates an Enricher converting into baseCurrency via rates.
func NewEnricher(baseCurrency string, rates RateSource) *Enricher {
	return &Enricher{
		baseCurrency: strings.ToUpper(strings.TrimSpace(baseCurrency)),
		rates:        rates,
	}
}

// NormalizeDate parses an invoice date string into canonical YYYY-MM-DD.
// On failure the original string is returned unchanged with ok=false.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, format := range dateFormats {
		if d, err := time.Parse(format, raw); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return raw, false
}

// Enrich computes the derived fields for a candidate. Rate lookup failures
// degrade to a 1.0 fallback rate rather than failing the record; the
// provenance field records that the rate is not authoritative.
func (e *Enricher) Enrich(ctx context.Context, candidate *extraction.Candidate) Enriched {
	out := Enriched{
		CurrencyCode:   strings.ToUpper(candidate.CurrencyCode),
		AmountOriginal: decimal.NewFromFloat(candidate.Amount),
	}

	out.InvoiceDate, out.DateNormalized = NormalizeDate(candidate.InvoiceDate)
	if out.DateNormalized {
		// NormalizeDate only returns ok for dates it just formatted
		d, _ := time.Parse("2006-01-02", out.InvoiceDate)
		out.TaxYear = TaxYear(d)
	} else {
		out.TaxYear = TaxYearUnknown
		slog.Warn("Invoice date not normalizable, tax year unknown", "date", candidate.InvoiceDate)
	}

	out.ExchangeRate, out.RateProvenance = e.resolveRate(ctx, out.CurrencyCode, out.InvoiceDate, out.DateNormalized)

	// Round half away from zero, matching the report's 2dp money columns
	out.AmountBase = out.AmountOriginal.Mul(out.ExchangeRate).Round(2)

	return out
}

func (e *Enricher) resolveRate(ctx context.Context, currency, isoDate string, dated bool) (decimal.Decimal, ledger.RateProvenance) {
	if currency == e.baseCurrency {
		return decimal.NewFromInt(1), ledger.RateBase
	}

	if !dated {
		// No valid date to key a historical lookup on
		slog.Warn("No normalized date for rate lookup, assuming 1:1", "currency", currency)
		return decimal.NewFromInt(1), ledger.RateFallback
	}

	rate, err := e.rates.Rate(ctx, currency, isoDate)
	if err != nil {
		slog.Warn("Rate lookup failed, assuming 1:1", "currency", currency, "date", isoDate, "error", err)
		return decimal.NewFromInt(1), ledger.RateFallback
	}
	return rate, ledger.RateLookup
}
