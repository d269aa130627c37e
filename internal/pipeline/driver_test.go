package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/hwouters/invoice-ledger/internal/discovery"
	"github.com/hwouters/invoice-ledger/internal/enrich"
	"github.com/hwouters/invoice-ledger/internal/extraction"
	"github.com/hwouters/invoice-ledger/internal/ledger"
	"github.com/hwouters/invoice-ledger/internal/pipeline"
)

func TestPipeline(t *testing.T) {
	// Disable logging during tests
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

// mockDB is a mock implementation of ledger.DB
type mockDB struct {
	records   map[string]*ledger.InvoiceRecord
	existsErr error
	insertErr error
}

func newMockDB() *mockDB {
	return &mockDB{records: make(map[string]*ledger.InvoiceRecord)}
}

func (m *mockDB) Exists(fingerprint string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.records[fingerprint]
	return ok, nil
}

func (m *mockDB) Insert(record *ledger.InvoiceRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.records[record.Fingerprint]; ok {
		return ledger.ErrDuplicate
	}
	m.records[record.Fingerprint] = record
	return nil
}

func (m *mockDB) ListAll() ([]*ledger.InvoiceRecord, error) {
	records := make([]*ledger.InvoiceRecord, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	return records, nil
}

func (m *mockDB) Close() error {
	return nil
}

// mockExtractor is a mock implementation of extraction.Extractor. Failures
// are keyed by file content so individual files in a batch can fail.
type mockExtractor struct {
	candidate  *extraction.Candidate
	failOn     map[string]error
	extractErr error
	calls      int
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{
		candidate: &extraction.Candidate{
			Vendor:        "Acme Ltd",
			InvoiceNumber: "INV-1001",
			InvoiceDate:   "2023-06-01",
			CurrencyCode:  "GBP",
			Amount:        120.50,
		},
		failOn: make(map[string]error),
	}
}

func (m *mockExtractor) Extract(ctx context.Context, fileBytes []byte) (*extraction.Candidate, error) {
	m.calls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	if err, ok := m.failOn[string(fileBytes)]; ok {
		return nil, err
	}
	return m.candidate, nil
}

func (m *mockExtractor) Close() error {
	return nil
}

// mockNotifier records notifications
type mockNotifier struct {
	successes []string
	failures  []string
	summaries int
}

func (m *mockNotifier) Success(path, vendor string) {
	m.successes = append(m.successes, path)
}

func (m *mockNotifier) Failure(path string, err error) {
	m.failures = append(m.failures, path)
}
func (m *mockNotifier) Summary(added, skipped, failed int) {
	m.summaries++
}

// mockReporter records export calls
type mockReporter struct {
	exports   int
	exportErr error
}

func (m *mockReporter) Export() error {
	m.exports++
	return m.exportErr
}

// mockRateSource returns a fixed rate; the default candidate is GBP so the
// driver tests mostly exercise the identity path.
type mockRateSource struct{}

func (mockRateSource) Rate(ctx context.Context, currency, isoDate string) (decimal.Decimal, error) {
	return decimal.NewFromFloat(0.79), nil
}

// mockTimeSource is a mock implementation of TimeSource
type mockTimeSource struct {
	now time.Time
}

func (m *mockTimeSource) Now() time.Time {
	return m.now
}

var _ = Describe("Driver", func() {
	var (
		tmpDir    string
		db        *mockDB
		extractor *mockExtractor
		notifier  *mockNotifier
		reporter  *mockReporter
		enricher  *enrich.Enricher
		timeSrc   *mockTimeSource
		sleeps    []time.Duration
		driver    *pipeline.Driver
		documents []discovery.Document
		summary   *pipeline.Summary
		runErr    error
	)

	writeDoc := func(name, content string, category ledger.Category) discovery.Document {
		path := filepath.Join(tmpDir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return discovery.Document{Path: path, Category: category}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		db = newMockDB()
		extractor = newMockExtractor()
		notifier = &mockNotifier{}
		reporter = &mockReporter{}
		enricher = enrich.NewEnricher("GBP", mockRateSource{})
		timeSrc = &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		sleeps = nil
		documents = nil
	})

	JustBeforeEach(func() {
		driver = pipeline.NewDriverWithDeps(db, extractor, enricher, notifier, reporter, 100*time.Millisecond, timeSrc,
			func(d time.Duration) { sleeps = append(sleeps, d) })
		summary, runErr = driver.Run(context.Background(), documents)
	})

	When("processing a batch of new files", func() {
		BeforeEach(func() {
			documents = []discovery.Document{
				writeDoc("a.pdf", "invoice a", ledger.CategoryIncome),
				writeDoc("b.pdf", "invoice b", ledger.CategoryExpenditure),
			}
		})

		It("should not return an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
		})

		It("should persist every file", func() {
			Expect(summary.Added).To(Equal(2))
			Expect(db.records).To(HaveLen(2))
		})

		It("should stamp each record with the ingestion time", func() {
			for _, r := range db.records {
				Expect(r.ProcessedAt).To(Equal(timeSrc.now))
			}
		})

		It("should store absolute source paths", func() {
			for _, r := range db.records {
				Expect(filepath.IsAbs(r.SourcePath)).To(BeTrue())
			}
		})

		It("should export the report once", func() {
			Expect(reporter.exports).To(Equal(1))
		})

		It("should send one summary notification", func() {
			Expect(notifier.summaries).To(Equal(1))
		})

		It("should send a success notification per file", func() {
			Expect(notifier.successes).To(HaveLen(2))
		})

		It("should throttle between files but not after the last", func() {
			Expect(sleeps).To(HaveLen(1))
			Expect(sleeps[0]).To(Equal(100 * time.Millisecond))
		})
	})

	When("a file's content is already in the ledger", func() {
		BeforeEach(func() {
			doc := writeDoc("a.pdf", "invoice a", ledger.CategoryIncome)
			db.records[ledger.Fingerprint([]byte("invoice a"))] = &ledger.InvoiceRecord{}
			documents = []discovery.Document{doc}
		})

		It("should skip the file without calling the extractor", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(summary.Skipped).To(Equal(1))
			Expect(extractor.calls).To(BeZero())
		})

		It("should not export a report when nothing was added", func() {
			Expect(reporter.exports).To(BeZero())
			Expect(notifier.summaries).To(BeZero())
		})
	})

	When("one file in the batch fails extraction", func() {
		BeforeEach(func() {
			documents = []discovery.Document{
				writeDoc("a.pdf", "invoice a", ledger.CategoryIncome),
				writeDoc("bad.pdf", "scanned image", ledger.CategoryOther),
				writeDoc("c.pdf", "invoice c", ledger.CategoryExpenditure),
			}
			extractor.failOn["scanned image"] = extraction.ErrUnreadableDocument
		})

		It("should not abort the batch", func() {
			Expect(runErr).NotTo(HaveOccurred())
		})

		It("should persist every other file", func() {
			Expect(summary.Added).To(Equal(2))
			Expect(summary.Failed).To(Equal(1))
			Expect(db.records).To(HaveLen(2))
		})

		It("should send a failure notification for the bad file", func() {
			Expect(notifier.failures).To(HaveLen(1))
			Expect(notifier.failures[0]).To(ContainSubstring("bad.pdf"))
		})

		It("should still throttle between all files", func() {
			Expect(sleeps).To(HaveLen(2))
		})
	})

	When("a file cannot be read", func() {
		BeforeEach(func() {
			documents = []discovery.Document{
				{Path: filepath.Join(tmpDir, "gone.pdf"), Category: ledger.CategoryOther},
			}
		})

		It("should record a failure and continue", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(summary.Failed).To(Equal(1))
		})
	})

	When("the insert races into a duplicate", func() {
		BeforeEach(func() {
			documents = []discovery.Document{
				writeDoc("a.pdf", "invoice a", ledger.CategoryIncome),
			}
			db.insertErr = ledger.ErrDuplicate
		})

		It("should treat the file as skipped, not failed", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(summary.Skipped).To(Equal(1))
			Expect(summary.Failed).To(BeZero())
		})
	})

	When("the ledger is unreachable", func() {
		BeforeEach(func() {
			documents = []discovery.Document{
				writeDoc("a.pdf", "invoice a", ledger.CategoryIncome),
				writeDoc("b.pdf", "invoice b", ledger.CategoryIncome),
			}
			db.existsErr = errors.New("database file corrupt")
		})

		It("should abort the batch", func() {
			Expect(runErr).To(HaveOccurred())
		})

		It("should stop at the first file", func() {
			Expect(summary.Results).To(HaveLen(1))
		})
	})

	When("the batch is empty", func() {
		It("should complete without persisting or reporting", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(summary.Added).To(BeZero())
			Expect(reporter.exports).To(BeZero())
		})
	})
})
