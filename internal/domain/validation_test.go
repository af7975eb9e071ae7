package domain_test

import (
	"testing"
	"time"

	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidPAN(t *testing.T) {
	tests := []struct {
		name  string
		pan   string
		valid bool
	}{
		{"valid PAN", "ABCDE1234F", true},
		{"lowercase rejected", "abcde1234f", false},
		{"too short", "ABCDE123F", false},
		{"too long", "ABCDE12345F", false},
		{"digits in letter positions", "1BCDE1234F", false},
		{"letter in digit positions", "ABCDEX234F", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, domain.ValidPAN(tt.pan))
		})
	}
}

func TestValidGSTIN(t *testing.T) {
	tests := []struct {
		name  string
		gstin string
		valid bool
	}{
		{"valid GSTIN", "27ABCDE1234F1Z5", true},
		{"valid with letter entity code", "07ABCDE1234FAZ5", true},
		{"missing Z", "27ABCDE1234F1X5", false},
		{"zero entity code", "27ABCDE1234F0Z5", false},
		{"too short", "27ABCDE1234F1Z", false},
		{"lowercase", "27abcde1234f1z5", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, domain.ValidGSTIN(tt.gstin))
		})
	}
}

func TestFinancialYearFor(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"start of financial year", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{"last day of financial year", time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC), "2025-2026"},
		{"mid year", time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC), "2025-2026"},
		{"january falls in previous label", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{"april rolls the label", time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "2026-2027"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.FinancialYearFor(tt.date))
		})
	}
}

func TestFinancialYearBounds(t *testing.T) {
	start, end := domain.FinancialYearBounds(time.Date(2025, time.December, 10, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), end)

	// January belongs to the year that started the previous April
	start, _ = domain.FinancialYearBounds(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, start.Year())
}

func TestAccessTypeCovers(t *testing.T) {
	assert.True(t, domain.AccessAll.Covers(domain.PeriodMonthly))
	assert.True(t, domain.AccessAll.Covers(domain.PeriodYearly))
	assert.True(t, domain.AccessMonthly.Covers(domain.PeriodMonthly))
	assert.False(t, domain.AccessMonthly.Covers(domain.PeriodQuarterly))
	assert.False(t, domain.AccessYearly.Covers(domain.PeriodMonthly))
}

func TestEntityStatusTransitions(t *testing.T) {
	assert.False(t, domain.EntityStatusPendingApproval.IsTerminal())
	assert.True(t, domain.EntityStatusActive.IsTerminal())
	assert.True(t, domain.EntityStatusRejected.IsTerminal())
	assert.False(t, domain.EntityStatus("bogus").IsValid())
}
