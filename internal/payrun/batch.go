// Package payrun builds and manages payment runs: batches of approved
// subcontractor invoices paid together in a single BACS cycle.
package payrun

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cispay/internal/logger"
	"cispay/pkg/models"
)

// Builder validates invoice selections and assembles payment runs.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a payment run builder.
func NewBuilder() *Builder {
	return &Builder{
		log: logger.WithComponent("payrun"),
	}
}

// Build creates a payment run from the selected invoices.
//
// Every invoice must currently be APPROVED; the first ineligible invoice
// rejects the whole selection. The run's totals are a snapshot taken now and
// are not recomputed if the invoices change later. Invoice order is preserved.
func (b *Builder) Build(name string, invoices []*models.Invoice) (*models.PaymentRun, error) {
	if len(invoices) == 0 {
		return nil, ErrNoEligibleInvoices
	}

	totalAmount := decimal.Zero
	totalDeduction := decimal.Zero
	netPayment := decimal.Zero

	for _, inv := range invoices {
		if !inv.IsApproved() {
			b.log.Warn().
				Str("run", name).
				Str("invoice", inv.InvoiceNumber).
				Str("status", inv.Status).
				Msg("Rejecting payment run: invoice not approved")
			return nil, &IneligibleInvoiceError{
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				Status:        inv.Status,
			}
		}

		totalAmount = totalAmount.Add(inv.Amount)
		totalDeduction = totalDeduction.Add(inv.CISDeduction)
		netPayment = netPayment.Add(inv.NetPayment)
	}

	run := &models.PaymentRun{
		ID:             uuid.New(),
		Name:           name,
		Status:         models.RunStatusDraft,
		TotalAmount:    totalAmount,
		TotalDeduction: totalDeduction,
		NetPayment:     netPayment,
		InvoiceCount:   len(invoices),
		Invoices:       invoices,
		CreatedAt:      time.Now(),
	}

	b.log.Info().
		Str("run", name).
		Int("invoices", run.InvoiceCount).
		Str("total_amount", totalAmount.StringFixed(2)).
		Str("total_deduction", totalDeduction.StringFixed(2)).
		Str("net_payment", netPayment.StringFixed(2)).
		Msg("Payment run built")

	return run, nil
}
