package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gen2brain/beeep"
)

// Notifier is a best-effort side channel for progress alerts. Failures here
// must never affect pipeline correctness, so implementations do not return
// errors.
type Notifier interface {
	// Success announces one newly persisted invoice
	Success(path, vendor string)
	// Failure announces one failed file
	Failure(path string, err error)
	// Summary announces end-of-batch counts
	Summary(added, skipped, failed int)
}

// DesktopNotifier sends OS-level desktop notifications.
type DesktopNotifier struct{}

// Success announces one newly persisted invoice
func (DesktopNotifier) Success(path, vendor string) {
	msg := fmt.Sprintf("%s (%s)", vendor, filepath.Base(path))
	if err := beeep.Notify("Invoice ingested", msg, ""); err != nil {
		slog.Debug("Notification failed", "error", err)
	}
}

// Failure announces one failed file
func (DesktopNotifier) Failure(path string, err error) {
	msg := fmt.Sprintf("%s: %v", filepath.Base(path), err)
	if alertErr := beeep.Alert("Invoice failed", msg, ""); alertErr != nil {
		slog.Debug("Notification failed", "error", alertErr)
	}
}

// Summary announces end-of-batch counts
func (DesktopNotifier) Summary(added, skipped, failed int) {
	msg := fmt.Sprintf("%d added, %d skipped, %d failed", added, skipped, failed)
	if err := beeep.Notify("Invoice batch complete", msg, ""); err != nil {
		slog.Debug("Notification failed", "error", err)
	}
}

// NoopNotifier discards all notifications; used for headless runs and tests.
type NoopNotifier struct{}

func (NoopNotifier) Success(path, vendor string)        {}
func (NoopNotifier) Failure(path string, err error)     {}
func (NoopNotifier) Summary(added, skipped, failed int) {}
