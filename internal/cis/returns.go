package cis

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cispay/internal/logger"
	"cispay/pkg/models"
)

// ReturnLine is one subcontractor's totals on a monthly CIS return.
type ReturnLine struct {
	SubcontractorName  string
	UTR                string
	VerificationNumber string
	TotalPaid          decimal.Decimal // Gross amounts paid in the period
	TotalDeducted      decimal.Decimal // CIS withheld in the period
	InvoiceCount       int
}

// ReturnSummary aggregates payments made in one CIS tax month, ready for the
// CIS300 monthly return. Tax months run from the 6th to the 5th.
type ReturnSummary struct {
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Lines         []ReturnLine
	TotalPaid     decimal.Decimal
	TotalDeducted decimal.Decimal
}

// ReturnBuilder assembles monthly return summaries from paid invoices.
type ReturnBuilder struct {
	log zerolog.Logger
}

// NewReturnBuilder creates a monthly return builder.
func NewReturnBuilder() *ReturnBuilder {
	return &ReturnBuilder{
		log: logger.WithComponent("cis-return"),
	}
}

// TaxMonth returns the CIS tax month containing the given date. A tax month
// starts on the 6th and ends on the 5th of the following calendar month.
func TaxMonth(date time.Time) (start, end time.Time) {
	year, month, day := date.Date()
	if day < 6 {
		month--
	}
	start = time.Date(year, month, 6, 0, 0, 0, 0, date.Location())
	end = start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start, end
}

// MonthlyReturn builds the return summary for the tax month containing
// periodDate. Only PAID invoices with a payment date inside the period are
// counted; everything else is ignored.
func (b *ReturnBuilder) MonthlyReturn(invoices []*models.Invoice, periodDate time.Time) *ReturnSummary {
	start, end := TaxMonth(periodDate)

	summary := &ReturnSummary{
		PeriodStart:   start,
		PeriodEnd:     end,
		TotalPaid:     decimal.Zero,
		TotalDeducted: decimal.Zero,
	}

	// Group paid invoices by subcontractor
	lines := make(map[string]*ReturnLine)
	for _, inv := range invoices {
		if inv.Status != models.InvoiceStatusPaid || inv.PaymentDate == nil {
			continue
		}
		paid := *inv.PaymentDate
		if paid.Before(start) || !paid.Before(end.AddDate(0, 0, 1)) {
			continue
		}
		if inv.Subcontractor == nil {
			b.log.Warn().
				Str("invoice", inv.InvoiceNumber).
				Msg("Paid invoice has no subcontractor, excluding from return")
			continue
		}

		key := inv.Subcontractor.CompanyName
		line, ok := lines[key]
		if !ok {
			line = &ReturnLine{
				SubcontractorName:  inv.Subcontractor.CompanyName,
				UTR:                inv.Subcontractor.UTR,
				VerificationNumber: inv.Subcontractor.VerificationNumber,
				TotalPaid:          decimal.Zero,
				TotalDeducted:      decimal.Zero,
			}
			lines[key] = line
		}

		line.TotalPaid = line.TotalPaid.Add(inv.Amount)
		line.TotalDeducted = line.TotalDeducted.Add(inv.CISDeduction)
		line.InvoiceCount++

		summary.TotalPaid = summary.TotalPaid.Add(inv.Amount)
		summary.TotalDeducted = summary.TotalDeducted.Add(inv.CISDeduction)
	}

	// Stable output order for rendering and tests
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		summary.Lines = append(summary.Lines, *lines[name])
	}

	b.log.Info().
		Str("period_start", start.Format("2006-01-02")).
		Str("period_end", end.Format("2006-01-02")).
		Int("subcontractors", len(summary.Lines)).
		Str("total_deducted", summary.TotalDeducted.StringFixed(2)).
		Msg("Monthly CIS return built")

	return summary
}
