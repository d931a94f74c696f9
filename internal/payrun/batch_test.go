package payrun_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cispay/internal/cis"
	"cispay/internal/payrun"
	"cispay/pkg/models"
)

func approvedInvoice(number, amount, rate string) *models.Invoice {
	r := decimal.RequireFromString(rate)
	inv := &models.Invoice{
		InvoiceNumber: number,
		Subcontractor: &models.Subcontractor{CompanyName: "Sub " + number},
		Amount:        decimal.RequireFromString(amount),
		DeductionRate: &r,
		Status:        models.InvoiceStatusApproved,
	}
	if err := cis.Apply(inv); err != nil {
		panic(err)
	}
	return inv
}

func TestBuildTotals(t *testing.T) {
	invoices := []*models.Invoice{
		approvedInvoice("1001", "1000.00", "20"),
		approvedInvoice("1002", "1200.50", "0"),
		approvedInvoice("1003", "333.33", "30"),
	}

	run, err := payrun.NewBuilder().Build("2026-W35", invoices)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if run.Status != models.RunStatusDraft {
		t.Errorf("Status = %s, want DRAFT", run.Status)
	}
	if run.InvoiceCount != 3 {
		t.Errorf("InvoiceCount = %d, want 3", run.InvoiceCount)
	}
	if got := run.TotalAmount.StringFixed(2); got != "2533.83" {
		t.Errorf("TotalAmount = %s, want 2533.83", got)
	}
	// 200.00 + 0 + 100.00 (333.33 * 30% = 99.999 rounded to 100.00)
	if got := run.TotalDeduction.StringFixed(2); got != "300.00" {
		t.Errorf("TotalDeduction = %s, want 300.00", got)
	}

	// Aggregation must not introduce rounding drift
	if !run.NetPayment.Equal(run.TotalAmount.Sub(run.TotalDeduction)) {
		t.Errorf("NetPayment = %s, want TotalAmount - TotalDeduction = %s",
			run.NetPayment, run.TotalAmount.Sub(run.TotalDeduction))
	}

	// Order of invoices is preserved
	for i, inv := range invoices {
		if run.Invoices[i] != inv {
			t.Errorf("invoice order changed at index %d", i)
		}
	}
}

func TestBuildEmptySet(t *testing.T) {
	_, err := payrun.NewBuilder().Build("empty", nil)
	if !errors.Is(err, payrun.ErrNoEligibleInvoices) {
		t.Errorf("Build() error = %v, want ErrNoEligibleInvoices", err)
	}
}

func TestBuildRejectsIneligibleInvoice(t *testing.T) {
	invoices := []*models.Invoice{
		approvedInvoice("1001", "1000.00", "20"),
		approvedInvoice("1002", "500.00", "20"),
	}
	invoices[1].Status = models.InvoiceStatusSubmitted

	_, err := payrun.NewBuilder().Build("2026-W35", invoices)
	if !errors.Is(err, payrun.ErrIneligibleInvoice) {
		t.Fatalf("Build() error = %v, want ErrIneligibleInvoice", err)
	}

	// The error names the offending invoice so the operator can fix it
	var ineligible *payrun.IneligibleInvoiceError
	if !errors.As(err, &ineligible) {
		t.Fatalf("error type = %T, want *IneligibleInvoiceError", err)
	}
	if ineligible.InvoiceNumber != "1002" {
		t.Errorf("InvoiceNumber = %s, want 1002", ineligible.InvoiceNumber)
	}
	if ineligible.Status != models.InvoiceStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", ineligible.Status)
	}
}

func TestBuildRejectsPaidInvoice(t *testing.T) {
	inv := approvedInvoice("1001", "1000.00", "20")
	inv.Status = models.InvoiceStatusPaid

	_, err := payrun.NewBuilder().Build("2026-W35", []*models.Invoice{inv})
	if !errors.Is(err, payrun.ErrIneligibleInvoice) {
		t.Errorf("Build() error = %v, want ErrIneligibleInvoice", err)
	}
}
