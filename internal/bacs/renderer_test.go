package bacs_test

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cispay/internal/bacs"
	"cispay/internal/cis"
	"cispay/internal/payrun"
	"cispay/pkg/models"
)

var processingDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func invoice(number, company, sortCode, account, accountName, amount, rate string) *models.Invoice {
	r := decimal.RequireFromString(rate)
	inv := &models.Invoice{
		InvoiceNumber: number,
		Subcontractor: &models.Subcontractor{
			CompanyName:       company,
			BankSortCode:      sortCode,
			BankAccountNumber: account,
			BankAccountName:   accountName,
		},
		Amount:        decimal.RequireFromString(amount),
		DeductionRate: &r,
		Status:        models.InvoiceStatusApproved,
	}
	if err := cis.Apply(inv); err != nil {
		panic(err)
	}
	return inv
}

func buildRun(t *testing.T, name string, invoices ...*models.Invoice) *models.PaymentRun {
	t.Helper()
	run, err := payrun.NewBuilder().Build(name, invoices)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return run
}

func TestRenderBACS(t *testing.T) {
	// Net payments: 800.00 and 1200.50 after deduction
	run := buildRun(t, "2026-W35",
		invoice("1001", "Brickwork Ltd", "12-34-56", "12345678", "BRICKWORK LTD", "1000.00", "20"),
		invoice("1002", "Apex Scaffolding", "654321", "1234567", "", "1200.50", "0"),
	)

	file, err := bacs.NewRenderer().Render(run, "bacs", processingDate)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(file.Content, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("line count = %d, want 4 (header + 2 payments + trailer)", len(lines))
	}

	if want := "0,20260901,2026-W35          "; lines[0] != want {
		t.Errorf("header = %q, want %q", lines[0], want)
	}

	// Sort code punctuation stripped, 7-digit account zero-padded, net pence
	// padded to 11 digits
	if want := "1,123456,12345678,00000080000,INV1001           ,BRICKWORK LTD     "; lines[1] != want {
		t.Errorf("payment line 1 = %q, want %q", lines[1], want)
	}
	// Missing account name falls back to company name
	if want := "1,654321,01234567,00000120050,INV1002           ,Apex Scaffolding  "; lines[2] != want {
		t.Errorf("payment line 2 = %q, want %q", lines[2], want)
	}

	// Trailer: 2 lines, 80000 + 120050 = 200050 pence, padded to 13 digits
	if want := "9,2,0000000200050"; lines[3] != want {
		t.Errorf("trailer = %q, want %q", lines[3], want)
	}

	if file.PaymentLines != 2 {
		t.Errorf("PaymentLines = %d, want 2", file.PaymentLines)
	}
	if file.TotalPence != 200050 {
		t.Errorf("TotalPence = %d, want 200050", file.TotalPence)
	}
	if want := "payment-run-2026-W35-20260901.txt"; file.Filename != want {
		t.Errorf("Filename = %q, want %q", file.Filename, want)
	}
}

func TestRenderBACSSkipsMissingBankDetails(t *testing.T) {
	run := buildRun(t, "2026-W36",
		invoice("2001", "Brickwork Ltd", "12-34-56", "12345678", "BRICKWORK LTD", "1000.00", "20"),
		invoice("2002", "No Bank Ltd", "", "", "", "500.00", "20"),
		invoice("2003", "Apex Scaffolding", "65-43-21", "87654321", "APEX SCAFFOLDING", "250.00", "30"),
	)

	file, err := bacs.NewRenderer().Render(run, "bacs", processingDate)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(file.Content, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("line count = %d, want 4 (one invoice skipped)", len(lines))
	}

	// Trailer count and total cover emitted lines only, not the snapshot
	trailer := strings.Split(lines[3], ",")
	if trailer[1] != "2" {
		t.Errorf("trailer count = %s, want 2", trailer[1])
	}
	// 800.00 + 175.00 = 97500 pence
	if trailer[2] != "0000000097500" {
		t.Errorf("trailer total = %s, want 0000000097500", trailer[2])
	}

	// The skip must be reported, never swallowed
	if !file.HasSkips() {
		t.Fatal("HasSkips() = false, want true")
	}
	if len(file.Skipped) != 1 {
		t.Fatalf("Skipped = %d entries, want 1", len(file.Skipped))
	}
	if file.Skipped[0].InvoiceNumber != "2002" {
		t.Errorf("skipped invoice = %s, want 2002", file.Skipped[0].InvoiceNumber)
	}
	if file.PaymentLines != 2 || run.InvoiceCount != 3 {
		t.Errorf("PaymentLines = %d with InvoiceCount = %d, want 2 and 3",
			file.PaymentLines, run.InvoiceCount)
	}
}

func TestRenderCSVIncludesAllInvoices(t *testing.T) {
	run := buildRun(t, "2026-W36",
		invoice("2001", "Brickwork Ltd", "12-34-56", "12345678", "BRICKWORK LTD", "1000.00", "20"),
		invoice("2002", "No Bank Ltd", "", "", "", "500.00", "20"),
		invoice("2003", "Quote \"Me\", Ltd", "65-43-21", "87654321", "", "250.00", "30"),
	)

	file, err := bacs.NewRenderer().Render(run, "csv", processingDate)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(file.Content)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("record count = %d, want 4 (header + 3 rows, bank details or not)", len(records))
	}

	header := strings.Join(records[0], "|")
	if want := "Invoice Number|Subcontractor|Sort Code|Account Number|Account Name|Amount|Net Payment|Reference"; header != want {
		t.Errorf("header = %q, want %q", header, want)
	}

	// Monetary fields carry exactly two decimal places
	if records[1][5] != "1000.00" || records[1][6] != "800.00" {
		t.Errorf("row 1 amounts = %s / %s, want 1000.00 / 800.00", records[1][5], records[1][6])
	}
	// Embedded quotes and commas survive the round trip
	if records[3][1] != "Quote \"Me\", Ltd" {
		t.Errorf("row 3 subcontractor = %q, want %q", records[3][1], "Quote \"Me\", Ltd")
	}
	if records[3][7] != "INV2003" {
		t.Errorf("row 3 reference = %s, want INV2003", records[3][7])
	}

	if want := "payment-run-2026-W36.csv"; file.Filename != want {
		t.Errorf("Filename = %q, want %q", file.Filename, want)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	run := buildRun(t, "2026-W35",
		invoice("1001", "Brickwork Ltd", "12-34-56", "12345678", "", "1000.00", "20"),
	)

	_, err := bacs.NewRenderer().Render(run, "xml", processingDate)
	if !errors.Is(err, bacs.ErrUnknownFormat) {
		t.Fatalf("Render() error = %v, want ErrUnknownFormat", err)
	}

	var unknown *bacs.UnknownFormatError
	if !errors.As(err, &unknown) {
		t.Fatalf("error type = %T, want *UnknownFormatError", err)
	}
	if unknown.Format != "xml" {
		t.Errorf("Format = %s, want xml", unknown.Format)
	}
}

func TestRenderBACSLongNamesTruncated(t *testing.T) {
	run := buildRun(t, "a-very-long-payment-run-name",
		invoice("90000000001", "Extremely Long Subcontractor Name Ltd", "123456", "12345678",
			"EXTREMELY LONG SUBCONTRACTOR NAME LTD", "100.00", "0"),
	)

	file, err := bacs.NewRenderer().Render(run, "bacs", processingDate)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(file.Content, "\n"), "\n")
	headerFields := strings.SplitN(lines[0], ",", 3)
	if len(headerFields[2]) != 18 {
		t.Errorf("header name width = %d, want 18", len(headerFields[2]))
	}
	payment := strings.Split(lines[1], ",")
	if len(payment[4]) != 18 || len(payment[5]) != 18 {
		t.Errorf("reference/payee widths = %d/%d, want 18/18", len(payment[4]), len(payment[5]))
	}
}
