package enrich

import (
	"fmt"
	"time"
)

// TaxYearUnknown is the sentinel tax year for records whose invoice date
// could not be normalized. An explicit degraded outcome, never a default.
const TaxYearUnknown = "Unknown"

// UK tax year boundary: 6 April.
const (
	taxYearBoundaryMonth = time.April
	taxYearBoundaryDay   = 6
)

// TaxYear returns the UK tax year label for a date, e.g. "2023-2024".
// Dates on or after 6 April of year Y fall in Y-(Y+1); earlier dates fall
// in (Y-1)-Y.
func TaxYear(date time.Time) string {
	boundary := time.Date(date.Year(), taxYearBoundaryMonth, taxYearBoundaryDay, 0, 0, 0, 0, date.Location())
	if date.Before(boundary) {
		return fmt.Sprintf("%d-%d", date.Year()-1, date.Year())
	}
	return fmt.Sprintf("%d-%d", date.Year(), date.Year()+1)
}
