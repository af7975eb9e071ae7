package domain

import (
	"fmt"
	"regexp"
	"time"
)

var (
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
)

// ValidPAN reports whether s is a well-formed Permanent Account Number
func ValidPAN(s string) bool {
	return panPattern.MatchString(s)
}

// ValidGSTIN reports whether s is a well-formed GST identification number
func ValidGSTIN(s string) bool {
	return gstinPattern.MatchString(s)
}

// FinancialYearFor returns the financial-year label for t. The financial
// year runs April 1 through March 31 and is labeled "YYYY-YYYY+1".
func FinancialYearFor(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return formatFY(year)
}

// CurrentFinancialYear returns the label for the financial year containing now
func CurrentFinancialYear() string {
	return FinancialYearFor(time.Now())
}

// FinancialYearBounds returns the inclusive start and exclusive end of the
// financial year containing t.
func FinancialYearBounds(t time.Time) (time.Time, time.Time) {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	start := time.Date(year, time.April, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(1, 0, 0)
}

func formatFY(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}
