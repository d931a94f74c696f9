// Package ingest reads subcontractor invoices from finance-team CSV exports
// into the domain model, applying CIS deductions as rows are loaded.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cispay/internal/cis"
	"cispay/internal/logger"
	"cispay/pkg/models"
)

// Reader loads invoices from CSV files.
type Reader struct {
	log zerolog.Logger
}

// NewReader creates a CSV invoice reader.
func NewReader() *Reader {
	return &Reader{
		log: logger.WithComponent("ingest"),
	}
}

// ReadInvoices reads invoices from the CSV file at path.
//
// Expected columns: A=Invoice Number, B=Subcontractor, C=UTR,
// D=Verification Status, E=Sort Code, F=Account Number, G=Account Name,
// H=Amount, I=Status, J=Payment Date (optional), K=Payment Reference
// (optional). The first row is a header and is skipped.
//
// Rows that cannot be parsed are skipped with a warning rather than failing
// the whole file; an empty status column defaults to APPROVED since the
// expected input is an export of invoices cleared for payment.
func (r *Reader) ReadInvoices(path string) ([]*models.Invoice, error) {
	const op = "ReadInvoices"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}
	defer f.Close()

	invoices, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return invoices, nil
}

// Read parses invoices from CSV data.
func (r *Reader) Read(src io.Reader) ([]*models.Invoice, error) {
	const op = "Read"

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // Tolerate ragged rows, validated per row below

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse CSV: %w", op, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: CSV file is empty", op)
	}

	// Skip header row and parse data
	var invoices []*models.Invoice
	for i, record := range records[1:] {
		rowNum := i + 2 // Account for header and 0-based indexing

		if len(record) < 8 {
			r.log.Warn().
				Int("row", rowNum).
				Int("columns", len(record)).
				Msg("Skipping invoice row with insufficient columns")
			continue
		}

		inv, err := r.parseRow(record, rowNum)
		if err != nil {
			r.log.Warn().
				Err(err).
				Int("row", rowNum).
				Msg("Failed to parse invoice row, skipping")
			continue
		}
		invoices = append(invoices, inv)
	}

	r.log.Info().
		Int("total_rows", len(records)-1).
		Int("parsed_invoices", len(invoices)).
		Msg("Invoices read")

	return invoices, nil
}

// parseRow parses a single invoice row.
func (r *Reader) parseRow(record []string, rowNum int) (*models.Invoice, error) {
	const op = "parseRow"

	amountStr := getField(record, 7)
	amount, err := parseUKAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid amount %q in row %d: %w", op, amountStr, rowNum, err)
	}

	verification := strings.ToUpper(getField(record, 3))
	if verification == "" {
		verification = models.VerificationUnmatched
	}
	rate, err := cis.RateForStatus(verification)
	if err != nil {
		return nil, fmt.Errorf("%s: row %d: %w", op, rowNum, err)
	}

	status := strings.ToUpper(getField(record, 8))
	if status == "" {
		status = models.InvoiceStatusApproved
	}

	now := time.Now()
	sub := &models.Subcontractor{
		ID:                 uuid.New(),
		CompanyName:        getField(record, 1),
		UTR:                getField(record, 2),
		VerificationStatus: verification,
		DeductionRate:      &rate,
		BankSortCode:       getField(record, 4),
		BankAccountNumber:  getField(record, 5),
		BankAccountName:    getField(record, 6),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	inv := &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: getField(record, 0),
		Subcontractor: sub,
		Amount:        amount,
		DeductionRate: &rate,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if inv.InvoiceNumber == "" {
		return nil, fmt.Errorf("%s: missing invoice number in row %d", op, rowNum)
	}

	// Optional settlement columns, present on exports of historic invoices
	if dateStr := getField(record, 9); dateStr != "" {
		paid, err := parseUKDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid payment date %q in row %d: %w", op, dateStr, rowNum, err)
		}
		inv.PaymentDate = &paid
	}
	inv.PaymentReference = getField(record, 10)

	if err := cis.Apply(inv); err != nil {
		return nil, fmt.Errorf("%s: row %d: %w", op, rowNum, err)
	}
	return inv, nil
}

// parseUKAmount parses UK amount formats: "1234.56", "1,234.56", "£1,234.56".
func parseUKAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(amountStr)
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}

	// Remove currency symbols and thousands separators
	cleaned = strings.ReplaceAll(cleaned, "£", "")
	cleaned = strings.ReplaceAll(cleaned, "GBP", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unable to parse amount: %s", amountStr)
	}
	return amount, nil
}

// parseUKDate parses UK date formats: "02/01/2006", "2/1/2006", "2006-01-02".
func parseUKDate(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	for _, format := range []string{"02/01/2006", "2/1/2006", "02-01-2006", "2006-01-02"} {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// getField safely extracts a trimmed field from a record.
func getField(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
