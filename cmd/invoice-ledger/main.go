package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/hwouters/invoice-ledger/internal/discovery"
	"github.com/hwouters/invoice-ledger/internal/enrich"
	"github.com/hwouters/invoice-ledger/internal/extraction"
	"github.com/hwouters/invoice-ledger/internal/ledger"
	"github.com/hwouters/invoice-ledger/internal/pipeline"
	"github.com/hwouters/invoice-ledger/internal/report"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("invoice-ledger")
	var (
		root         = fs.StringLong("root", "", "Root directory of invoice PDFs (required)")
		dbPath       = fs.StringLong("db", "invoice-ledger.db", "Ledger database file path")
		reportPath   = fs.StringLong("report", "invoice-report.csv", "CSV report output path")
		xlsxPath     = fs.StringLong("report-xlsx", "", "Optional XLSX report output path")
		baseCurrency = fs.StringLong("base-currency", "GBP", "Base currency all amounts are normalized into")
		minText      = fs.IntLong("min-text", 50, "Minimum extracted text length before a PDF counts as readable")
		textBudget   = fs.IntLong("text-budget", 5000, "Maximum characters of invoice text sent to the model")
		throttle     = fs.DurationLong("throttle", 2*time.Second, "Pause between files")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ratesURL     = fs.StringLong("rates-url", enrich.DefaultRatesURL, "Historical exchange rate API base URL")
		notify       = fs.BoolLong("notify", "Send desktop notifications")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_LEDGER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Root is the only required setting; everything else has a default
	if *root == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: --root is required")
		os.Exit(1)
	}

	slog.Info("Opening ledger...", "path", *dbPath)
	db, err := ledger.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
		os.Exit(1)
	}

	slog.Info("Initializing extractor...", "model", *geminiModel)
	extractor, err := extraction.NewGemini(apiKey, *geminiModel, *minText, *textBudget)
	if err != nil {
		slog.Error("Failed to initialize extractor", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	rates := enrich.NewHTTPRateSource(*ratesURL, *baseCurrency)
	enricher := enrich.NewEnricher(*baseCurrency, rates)
	exporter := report.NewExporter(db, *reportPath, *xlsxPath)

	var notifier pipeline.Notifier = pipeline.NoopNotifier{}
	if *notify {
		notifier = pipeline.DesktopNotifier{}
	}

	documents, err := discovery.Scan(*root)
	if err != nil {
		slog.Error("Failed to scan root directory", "root", *root, "error", err)
		os.Exit(1)
	}
	slog.Info("Scan complete", "root", *root, "files", len(documents))

	driver := pipeline.NewDriver(db, extractor, enricher, notifier, exporter, *throttle)

	summary, err := driver.Run(context.Background(), documents)
	if err != nil {
		slog.Error("Batch aborted", "added", summary.Added, "skipped", summary.Skipped, "failed", summary.Failed, "error", err)
		os.Exit(1)
	}

	// Per-file failures are recorded, not escalated to the exit status
	slog.Info("Batch complete", "added", summary.Added, "skipped", summary.Skipped, "failed", summary.Failed)
}
