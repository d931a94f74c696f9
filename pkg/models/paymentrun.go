package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment run lifecycle. Transitions are one-way:
// DRAFT -> READY -> EXPORTED -> PAID.
const (
	RunStatusDraft    = "DRAFT"
	RunStatusReady    = "READY"
	RunStatusExported = "EXPORTED"
	RunStatusPaid     = "PAID"
)

// PaymentRun is a batch of approved invoices paid together in one cycle.
// Totals are a snapshot taken when the run is built; they are not recomputed
// if the underlying invoices change afterwards.
type PaymentRun struct {
	ID     uuid.UUID
	Name   string
	Status string

	// Snapshot totals
	TotalAmount    decimal.Decimal // Sum of gross invoice amounts
	TotalDeduction decimal.Decimal // Sum of CIS deductions
	NetPayment     decimal.Decimal // Sum of net payments
	InvoiceCount   int

	// Constituent invoices in the order they were selected
	Invoices []*Invoice

	CreatedAt  time.Time
	ExportedAt *time.Time // Stamped when a BACS file is generated
	PaidAt     *time.Time // Stamped when the run is marked paid
}
