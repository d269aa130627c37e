package extraction

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// documentText extracts the embedded text of every page of a PDF.
func documentText(pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var text strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", i, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	return text.String(), nil
}

// truncate bounds the text sent to the model to a fixed character budget.
// The remainder of long documents is accepted as unread.
func truncate(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	return text[:budget]
}
