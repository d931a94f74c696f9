package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status lifecycle. Only APPROVED invoices may enter a payment run.
const (
	InvoiceStatusSubmitted   = "SUBMITTED"
	InvoiceStatusUnderReview = "UNDER_REVIEW"
	InvoiceStatusApproved    = "APPROVED"
	InvoiceStatusPaid        = "PAID"
	InvoiceStatusRejected    = "REJECTED"
)

type Invoice struct {
	// Core identifiers
	ID            uuid.UUID // Unique invoice identifier
	InvoiceNumber string    // Human-readable invoice number

	// Subcontractor who raised the invoice
	Subcontractor *Subcontractor

	// Amounts. CISDeduction and NetPayment are derived from Amount and the
	// subcontractor's verified deduction rate; NetPayment = Amount - CISDeduction
	// must hold at all times.
	Amount        decimal.Decimal  // Gross invoice value
	DeductionRate *decimal.Decimal // Percentage withheld (0-30); nil means no deduction applies
	CISDeduction  decimal.Decimal  // Statutory CIS withholding
	NetPayment    decimal.Decimal  // Amount actually payable to the subcontractor

	// Status
	Status           string     // SUBMITTED, UNDER_REVIEW, APPROVED, PAID, REJECTED
	PaymentDate      *time.Time // Set when the invoice is paid (nil if unpaid)
	PaymentReference string     // Reference of the payment run that settled it

	// Optional metadata
	Description string    // Brief description/notes
	CreatedAt   time.Time // Record creation timestamp
	UpdatedAt   time.Time // Last update timestamp
}

// Rate returns the invoice's deduction rate, treating nil as zero.
func (i *Invoice) Rate() decimal.Decimal {
	if i.DeductionRate == nil {
		return decimal.Zero
	}
	return *i.DeductionRate
}

// PaymentRef returns the reference that identifies this invoice on a bank
// statement, e.g. "INV1042".
func (i *Invoice) PaymentRef() string {
	return "INV" + i.InvoiceNumber
}

// IsApproved reports whether the invoice is eligible for batching.
func (i *Invoice) IsApproved() bool {
	return i.Status == InvoiceStatusApproved
}

// MarkPaid records settlement of the invoice by a payment run.
func (i *Invoice) MarkPaid(reference string, paidAt time.Time) {
	i.Status = InvoiceStatusPaid
	i.PaymentDate = &paidAt
	i.PaymentReference = reference
	i.UpdatedAt = paidAt
}
