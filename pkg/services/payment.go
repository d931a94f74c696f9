package services

import (
	"time"

	"cispay/pkg/models"
)

// FileRenderer defines the interface for rendering a payment run into an
// external file format.
type FileRenderer interface {
	// Render produces a payment file for the run in the requested format.
	// The processing date appears in the BACS header and the suggested
	// filename.
	Render(run *models.PaymentRun, format string, processingDate time.Time) (*PaymentFile, error)
}

// SkippedInvoice records an invoice excluded from a bank file and why.
type SkippedInvoice struct {
	InvoiceNumber string `json:"invoice_number"`
	Subcontractor string `json:"subcontractor"`
	Reason        string `json:"reason"`
}

// PaymentFile is a rendered payment run artifact.
//
// PaymentLines may be lower than the run's InvoiceCount when invoices were
// skipped for missing bank details; callers must surface that discrepancy to
// the operator rather than swallow it.
type PaymentFile struct {
	Format       string           `json:"format"`        // "bacs" or "csv"
	Filename     string           `json:"filename"`      // Suggested filename
	Content      string           `json:"content"`       // Full file payload
	PaymentLines int              `json:"payment_lines"` // Emitted payment rows (excludes header/trailer)
	TotalPence   int64            `json:"total_pence"`   // Net pence across emitted payment lines
	Skipped      []SkippedInvoice `json:"skipped"`       // Invoices excluded from the bank file
	GeneratedAt  time.Time        `json:"generated_at"`
}

// HasSkips reports whether any invoice was excluded from the file.
func (f *PaymentFile) HasSkips() bool {
	return len(f.Skipped) > 0
}
