package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hwouters/invoice-ledger/internal/discovery"
	"github.com/hwouters/invoice-ledger/internal/enrich"
	"github.com/hwouters/invoice-ledger/internal/extraction"
	"github.com/hwouters/invoice-ledger/internal/ledger"
)

// Status is the terminal state a file ends a batch in.
type Status string

const (
	StatusPersisted Status = "persisted"
	StatusSkipped   Status = "skipped_duplicate"
	StatusFailed    Status = "failed"
)

// FileResult records the outcome for a single scanned file.
type FileResult struct {
	Path        string
	Fingerprint string
	Status      Status
	Err         error
}

// Summary aggregates a batch run.
type Summary struct {
	Added   int
	Skipped int
	Failed  int
	Results []FileResult
}

// Reporter regenerates the summary reports from the ledger.
type Reporter interface {
	Export() error
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Driver orchestrates the full pipeline over a scanned file list: skip
// known content, extract, enrich, persist, notify, continue on error.
type Driver struct {
	db         ledger.DB
	extractor  extraction.Extractor
	enricher   *enrich.Enricher
	notifier   Notifier
	reporter   Reporter
	throttle   time.Duration
	timeSource TimeSource
	sleep      func(time.Duration)
}

// NewDriver creates a Driver with the real clock and sleeper.
func NewDriver(db ledger.DB, extractor extraction.Extractor, enricher *enrich.Enricher, notifier Notifier, reporter Reporter, throttle time.Duration) *Driver {
	return NewDriverWithDeps(db, extractor, enricher, notifier, reporter, throttle, defaultTimeSource{}, time.Sleep)
}

// NewDriverWithDeps creates a Driver with custom clock and sleeper for testing.
func NewDriverWithDeps(db ledger.DB, extractor extraction.Extractor, enricher *enrich.Enricher, notifier Notifier, reporter Reporter, throttle time.Duration, timeSource TimeSource, sleep func(time.Duration)) *Driver {
	return &Driver{
		db:         db,
		extractor:  extractor,
		enricher:   enricher,
		notifier:   notifier,
		reporter:   reporter,
		throttle:   throttle,
		timeSource: timeSource,
		sleep:      sleep,
	}
}

// Run processes every scanned document sequentially. Per-file failures are
// recorded and never abort the batch; only a broken ledger does. The
// returned summary is valid even when err is non-nil.
func (d *Driver) Run(ctx context.Context, documents []discovery.Document) (*Summary, error) {
	summary := &Summary{}

	for i, doc := range documents {
		slog.Info("Processing file", "file", doc.Path, "progress", fmt.Sprintf("%d/%d", i+1, len(documents)))

		result, err := d.processOne(ctx, doc)
		summary.Results = append(summary.Results, result)

		switch result.Status {
		case StatusPersisted:
			summary.Added++
		case StatusSkipped:
			summary.Skipped++
			slog.Info("Skipping already ingested file", "file", doc.Path, "fingerprint", result.Fingerprint)
		case StatusFailed:
			summary.Failed++
			slog.Error("Failed to process file", "file", doc.Path, "error", result.Err)
			d.notifier.Failure(doc.Path, result.Err)
		}

		if err != nil {
			// The ledger is unreachable or corrupt; continuing would
			// silently lose records.
			return summary, fmt.Errorf("persistence failure on %s: %w", doc.Path, err)
		}

		// Throttle between files to avoid saturating local inference
		if i < len(documents)-1 {
			d.sleep(d.throttle)
		}
	}

	if summary.Added > 0 {
		if err := d.reporter.Export(); err != nil {
			return summary, fmt.Errorf("exporting report: %w", err)
		}
		d.notifier.Summary(summary.Added, summary.Skipped, summary.Failed)
	}

	return summary, nil
}

// processOne moves a single file through the per-file state machine. The
// returned error is non-nil only for persistence-layer failures, which are
// fatal for the batch; everything else lands in the result.
func (d *Driver) processOne(ctx context.Context, doc discovery.Document) (FileResult, error) {
	result := FileResult{Path: doc.Path}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("reading file: %w", err)
		return result, nil
	}

	result.Fingerprint = ledger.Fingerprint(data)

	known, err := d.db.Exists(result.Fingerprint)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result, err
	}
	if known {
		result.Status = StatusSkipped
		return result, nil
	}

	candidate, err := d.extractor.Extract(ctx, data)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result, nil
	}

	enriched := d.enricher.Enrich(ctx, candidate)

	sourcePath := doc.Path
	if abs, absErr := filepath.Abs(doc.Path); absErr == nil {
		sourcePath = abs
	}

	record := &ledger.InvoiceRecord{
		Fingerprint:    result.Fingerprint,
		SourcePath:     sourcePath,
		Vendor:         candidate.Vendor,
		InvoiceNumber:  candidate.InvoiceNumber,
		InvoiceDate:    enriched.InvoiceDate,
		DateNormalized: enriched.DateNormalized,
		TaxYear:        enriched.TaxYear,
		Category:       doc.Category,
		CurrencyCode:   enriched.CurrencyCode,
		AmountOriginal: enriched.AmountOriginal,
		ExchangeRate:   enriched.ExchangeRate,
		RateProvenance: enriched.RateProvenance,
		AmountBase:     enriched.AmountBase,
		ProcessedAt:    d.timeSource.Now(),
	}

	if err := d.db.Insert(record); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			// Raced with ourselves or a previous interrupted run; the
			// content is already ledgered, which is all that matters.
			result.Status = StatusSkipped
			return result, nil
		}
		result.Status = StatusFailed
		result.Err = err
		return result, err
	}

	result.Status = StatusPersisted
	d.notifier.Success(doc.Path, candidate.Vendor)
	return result, nil
}
