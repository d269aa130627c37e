package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const invoiceExtractPrompt = `You are analyzing the text of an invoice. Extract the following information:

1. **Vendor**: the name of the business that issued the invoice, usually at the top of the document.
2. **Invoice number**: the invoice or reference number, often labeled "Invoice No", "Invoice #", or "Reference".
3. **Invoice date**: the issue date of the invoice, converted to ISO 8601 format (YYYY-MM-DD).
4. **Currency**: the 3-letter ISO 4217 code of the currency the invoice is billed in (e.g. GBP, USD, EUR). Infer from symbols if necessary.
5. **Total amount**: the final total or amount due, as a number.

Return ONLY valid JSON in this exact format:
{
  "vendor": "Business Name",
  "invoice_number": "INV-0000",
  "invoice_date": "YYYY-MM-DD",
  "currency_code": "GBP",
  "amount": 0.00
}

Important:
- The amount must be a number (not a string)
- Do not include any text before or after the JSON
- Do not use markdown code blocks

Invoice text:
`

// Gemini implements the Extractor interface using Google Gemini over the
// document's embedded text.
type Gemini struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	minText    int
	textBudget int
}

// NewGemini creates a new Gemini Extractor instance. minText is the minimum
// extractable text length below which a document is considered unreadable;
// textBudget bounds the number of characters sent to the model.
func NewGemini(apiKey, modelName string, minText, textBudget int) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	return &Gemini{
		client:     client,
		model:      model,
		minText:    minText,
		textBudget: textBudget,
	}, nil
}

// Extract pulls the embedded text out of a PDF and asks the model for a
// structured candidate record.
func (g *Gemini) Extract(ctx context.Context, fileBytes []byte) (*Candidate, error) {
	text, err := documentText(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	text = strings.TrimSpace(text)
	if len(text) < g.minText {
		return nil, fmt.Errorf("%w: %d characters extracted", ErrUnreadableDocument, len(text))
	}

	prompt := invoiceExtractPrompt + truncate(text, g.textBudget)

	callCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	resp, err := g.model.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &SchemaError{Detail: "no response from gemini"}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			responseText.WriteString(string(t))
		}
	}

	return parseCandidate(responseText.String())
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
