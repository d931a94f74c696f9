package ingest_test

import (
	"strings"
	"testing"

	"cispay/internal/ingest"
	"cispay/pkg/models"
)

const sampleCSV = `Invoice Number,Subcontractor,UTR,Verification Status,Sort Code,Account Number,Account Name,Amount,Status,Payment Date,Payment Reference
1001,Brickwork Ltd,1234567890,MATCHED,12-34-56,12345678,BRICKWORK LTD,"£1,000.00",APPROVED,,
1002,Apex Scaffolding,0987654321,GROSS,65-43-21,87654321,APEX SCAFFOLDING,1200.50,,,
1003,Unverified Joiner,5555555555,UNMATCHED,,,,"£333.33",APPROVED,,
1004,Paid Last Month,1111111111,MATCHED,11-22-33,11223344,PAID LAST MONTH,500.00,PAID,15/07/2026,2026-W29
`

func TestRead(t *testing.T) {
	invoices, err := ingest.NewReader().Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(invoices) != 4 {
		t.Fatalf("invoice count = %d, want 4", len(invoices))
	}

	first := invoices[0]
	if first.InvoiceNumber != "1001" {
		t.Errorf("InvoiceNumber = %s, want 1001", first.InvoiceNumber)
	}
	// Currency symbol and thousands separator are tolerated
	if got := first.Amount.StringFixed(2); got != "1000.00" {
		t.Errorf("Amount = %s, want 1000.00", got)
	}
	// MATCHED verification implies the standard 20% rate, applied on load
	if got := first.CISDeduction.StringFixed(2); got != "200.00" {
		t.Errorf("CISDeduction = %s, want 200.00", got)
	}
	if got := first.NetPayment.StringFixed(2); got != "800.00" {
		t.Errorf("NetPayment = %s, want 800.00", got)
	}
	if !first.Subcontractor.HasBankDetails() {
		t.Error("HasBankDetails() = false, want true")
	}

	// Blank status defaults to APPROVED; GROSS verification means no deduction
	second := invoices[1]
	if second.Status != models.InvoiceStatusApproved {
		t.Errorf("Status = %s, want APPROVED", second.Status)
	}
	if !second.CISDeduction.IsZero() {
		t.Errorf("CISDeduction = %s, want 0", second.CISDeduction)
	}

	// UNMATCHED rate with missing bank details still parses; the BACS
	// renderer decides what to do with it later
	third := invoices[2]
	if got := third.CISDeduction.StringFixed(2); got != "100.00" {
		t.Errorf("CISDeduction = %s, want 100.00 (30%% of 333.33)", got)
	}
	if third.Subcontractor.HasBankDetails() {
		t.Error("HasBankDetails() = true, want false")
	}

	// Settlement columns are parsed when present
	fourth := invoices[3]
	if fourth.Status != models.InvoiceStatusPaid {
		t.Errorf("Status = %s, want PAID", fourth.Status)
	}
	if fourth.PaymentDate == nil {
		t.Fatal("PaymentDate = nil, want 15 July 2026")
	}
	if got := fourth.PaymentDate.Format("2006-01-02"); got != "2026-07-15" {
		t.Errorf("PaymentDate = %s, want 2026-07-15", got)
	}
	if fourth.PaymentReference != "2026-W29" {
		t.Errorf("PaymentReference = %s, want 2026-W29", fourth.PaymentReference)
	}
}

func TestReadSkipsBadRows(t *testing.T) {
	csv := `Invoice Number,Subcontractor,UTR,Verification Status,Sort Code,Account Number,Account Name,Amount,Status
1001,Brickwork Ltd,1234567890,MATCHED,12-34-56,12345678,BRICKWORK LTD,1000.00,APPROVED
,Missing Number Ltd,1234567890,MATCHED,12-34-56,12345678,X,100.00,APPROVED
1003,Bad Amount Ltd,1234567890,MATCHED,12-34-56,12345678,X,not-a-number,APPROVED
1004,Short Row
`
	invoices, err := ingest.NewReader().Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoice count = %d, want 1 (bad rows skipped, not fatal)", len(invoices))
	}
	if invoices[0].InvoiceNumber != "1001" {
		t.Errorf("InvoiceNumber = %s, want 1001", invoices[0].InvoiceNumber)
	}
}

func TestReadEmptyFile(t *testing.T) {
	_, err := ingest.NewReader().Read(strings.NewReader(""))
	if err == nil {
		t.Fatal("Read() error = nil, want error for empty file")
	}
}

func TestReadDefaultsUnknownVerification(t *testing.T) {
	csv := `Invoice Number,Subcontractor,UTR,Verification Status,Sort Code,Account Number,Account Name,Amount,Status
1001,New Sub Ltd,1234567890,,12-34-56,12345678,NEW SUB LTD,1000.00,APPROVED
`
	invoices, err := ingest.NewReader().Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoice count = %d, want 1", len(invoices))
	}

	// No verification outcome on file means the higher 30% rate applies
	if got := invoices[0].CISDeduction.StringFixed(2); got != "300.00" {
		t.Errorf("CISDeduction = %s, want 300.00", got)
	}
}
