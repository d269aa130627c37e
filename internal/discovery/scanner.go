package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hwouters/invoice-ledger/internal/ledger"
)

const targetExtension = ".pdf"

// Document is a discovered invoice file with its path-derived category.
type Document struct {
	Path     string
	Category ledger.Category
}

// Scan walks root recursively and returns every PDF file found, in
// traversal order. A missing root is a normal "nothing to do" condition and
// returns an empty result, not an error.
func Scan(root string) ([]Document, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var documents []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), targetExtension) {
			return nil
		}
		documents = append(documents, Document{
			Path:     path,
			Category: Categorize(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	return documents, nil
}

// Categorize infers an invoice category from its path by case-insensitive
// substring match. Unmatched paths classify as Other.
func Categorize(path string) ledger.Category {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "income"):
		return ledger.CategoryIncome
	case strings.Contains(lower, "expenditure"):
		return ledger.CategoryExpenditure
	default:
		return ledger.CategoryOther
	}
}
