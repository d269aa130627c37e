package extraction

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// candidateSchema constrains the model output: all required fields present,
// correct types, a real 3-letter currency code, a non-negative amount.
var candidateSchema = jsonschema.MustCompileString("candidate.json", `{
	"type": "object",
	"required": ["vendor", "invoice_number", "invoice_date", "currency_code", "amount"],
	"properties": {
		"vendor":         {"type": "string", "minLength": 1},
		"invoice_number": {"type": "string", "minLength": 1},
		"invoice_date":   {"type": "string", "minLength": 1},
		"currency_code":  {"type": "string", "pattern": "^[A-Za-z]{3}$"},
		"amount":         {"type": "number", "minimum": 0}
	}
}`)

// stripFences removes any markdown code fences or surrounding prose the
// model may have wrapped around its JSON output.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Keep only the outermost JSON object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

// parseCandidate validates a raw model response and decodes it into a
// Candidate. Any violation is a SchemaError; nothing is silently defaulted.
func parseCandidate(raw string) (*Candidate, error) {
	text := stripFences(raw)

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, &SchemaError{Detail: "malformed JSON", Err: err}
	}
	if err := candidateSchema.Validate(generic); err != nil {
		return nil, &SchemaError{Detail: "schema violation", Err: err}
	}

	var candidate Candidate
	if err := json.Unmarshal([]byte(text), &candidate); err != nil {
		return nil, &SchemaError{Detail: "decoding candidate", Err: err}
	}

	candidate.Vendor = strings.TrimSpace(candidate.Vendor)
	candidate.InvoiceNumber = strings.TrimSpace(candidate.InvoiceNumber)
	candidate.InvoiceDate = strings.TrimSpace(candidate.InvoiceDate)
	candidate.CurrencyCode = strings.ToUpper(strings.TrimSpace(candidate.CurrencyCode))

	// minLength passes whitespace-only strings; reject those too
	if candidate.Vendor == "" {
		return nil, &SchemaError{Detail: "vendor is empty"}
	}
	if candidate.InvoiceNumber == "" {
		return nil, &SchemaError{Detail: "invoice_number is empty"}
	}
	if candidate.InvoiceDate == "" {
		return nil, &SchemaError{Detail: "invoice_date is empty"}
	}

	return &candidate, nil
}
