package extraction

import "context"

// Candidate contains the structured fields the model reads off an invoice.
// Values are validated but not yet enriched (no tax year, no base amount).
type Candidate struct {
	Vendor        string  `json:"vendor"`
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceDate   string  `json:"invoice_date"`
	CurrencyCode  string  `json:"currency_code"` // uppercased 3-letter code
	Amount        float64 `json:"amount"`
}

// Extractor defines the interface for turning raw document bytes into a
// validated candidate record.
type Extractor interface {
	// Extract analyzes a PDF invoice and extracts a validated candidate
	Extract(ctx context.Context, fileBytes []byte) (*Candidate, error)
	// Close closes the extractor and releases resources
	Close() error
}
