// Package bacs renders payment runs into bank submission files.
//
// Two formats are supported: a simplified BACS-style delimited record format
// for submission to the clearing system, and a CSV audit listing. The BACS
// output silently skips invoices whose subcontractor has incomplete bank
// details; the skip list is returned on the result so the operator sees the
// discrepancy between run size and emitted payment lines.
package bacs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cispay/internal/logger"
	"cispay/pkg/models"
	"cispay/pkg/services"
)

// Supported file formats
const (
	FormatBACS = "bacs"
	FormatCSV  = "csv"
)

const (
	// nameFieldWidth is the fixed width of batch name, payment reference and
	// payee name fields in the BACS output.
	nameFieldWidth = 18

	sortCodeDigits = 6
	accountDigits  = 8
	amountDigits   = 11
	trailerDigits  = 13
)

var penceFactor = decimal.NewFromInt(100)

// Renderer implements services.FileRenderer for BACS and CSV output.
type Renderer struct {
	log zerolog.Logger
}

// NewRenderer creates a payment file renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		log: logger.WithComponent("bacs"),
	}
}

// Render produces a payment file for the run in the requested format.
func (r *Renderer) Render(run *models.PaymentRun, format string, processingDate time.Time) (*services.PaymentFile, error) {
	switch strings.ToLower(format) {
	case FormatBACS:
		return r.renderBACS(run, processingDate)
	case FormatCSV:
		return r.renderCSV(run)
	default:
		return nil, &UnknownFormatError{Format: format}
	}
}

// renderBACS emits the delimited BACS-style payload:
//
//	0,<YYYYMMDD>,<batch name, 18 chars>
//	1,<sort code>,<account>,<net pence, 11 digits>,<reference, 18>,<payee, 18>
//	9,<payment line count>,<total net pence, 13 digits>
//
// The trailer totals are recomputed from the emitted payment lines, not from
// the run's snapshot totals, so skipped invoices never inflate the trailer.
func (r *Renderer) renderBACS(run *models.PaymentRun, processingDate time.Time) (*services.PaymentFile, error) {
	var lines []string
	lines = append(lines, strings.Join([]string{
		"0",
		processingDate.Format("20060102"),
		fixedWidth(run.Name, nameFieldWidth),
	}, ","))

	var skipped []services.SkippedInvoice
	var totalPence int64
	emitted := 0

	for _, inv := range run.Invoices {
		sub := inv.Subcontractor
		if sub == nil || !sub.HasBankDetails() {
			reason := "missing bank details"
			name := ""
			if sub != nil {
				name = sub.CompanyName
				if sub.BankSortCode == "" {
					reason = "missing sort code"
				} else if sub.BankAccountNumber == "" {
					reason = "missing account number"
				}
			}
			r.log.Warn().
				Str("run", run.Name).
				Str("invoice", inv.InvoiceNumber).
				Str("reason", reason).
				Msg("Skipping invoice from BACS file")
			skipped = append(skipped, services.SkippedInvoice{
				InvoiceNumber: inv.InvoiceNumber,
				Subcontractor: name,
				Reason:        reason,
			})
			continue
		}

		pence := toPence(inv.NetPayment)
		lines = append(lines, strings.Join([]string{
			"1",
			zeroPad(digitsOnly(sub.BankSortCode), sortCodeDigits),
			zeroPad(digitsOnly(sub.BankAccountNumber), accountDigits),
			fmt.Sprintf("%0*d", amountDigits, pence),
			fixedWidth(inv.PaymentRef(), nameFieldWidth),
			fixedWidth(sub.PayeeName(), nameFieldWidth),
		}, ","))
		totalPence += pence
		emitted++
	}

	lines = append(lines, strings.Join([]string{
		"9",
		fmt.Sprintf("%d", emitted),
		fmt.Sprintf("%0*d", trailerDigits, totalPence),
	}, ","))

	r.log.Info().
		Str("run", run.Name).
		Int("invoices", run.InvoiceCount).
		Int("payment_lines", emitted).
		Int("skipped", len(skipped)).
		Int64("total_pence", totalPence).
		Msg("BACS file rendered")

	return &services.PaymentFile{
		Format:       FormatBACS,
		Filename:     fmt.Sprintf("payment-run-%s-%s.txt", run.Name, processingDate.Format("20060102")),
		Content:      strings.Join(lines, "\n") + "\n",
		PaymentLines: emitted,
		TotalPence:   totalPence,
		Skipped:      skipped,
		GeneratedAt:  time.Now(),
	}, nil
}

// renderCSV emits the audit listing. Unlike the BACS output every invoice is
// included, with or without bank details.
func (r *Renderer) renderCSV(run *models.PaymentRun) (*services.PaymentFile, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Invoice Number", "Subcontractor", "Sort Code", "Account Number",
		"Account Name", "Amount", "Net Payment", "Reference"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("bacs: failed to write CSV header: %w", err)
	}

	for _, inv := range run.Invoices {
		var company, sortCode, account, accountName string
		if sub := inv.Subcontractor; sub != nil {
			company = sub.CompanyName
			sortCode = sub.BankSortCode
			account = sub.BankAccountNumber
			accountName = sub.BankAccountName
		}
		record := []string{
			inv.InvoiceNumber,
			company,
			sortCode,
			account,
			accountName,
			inv.Amount.StringFixed(2),
			inv.NetPayment.StringFixed(2),
			inv.PaymentRef(),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("bacs: failed to write CSV row for invoice %s: %w", inv.InvoiceNumber, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("bacs: failed to render CSV: %w", err)
	}

	r.log.Info().
		Str("run", run.Name).
		Int("rows", run.InvoiceCount).
		Msg("CSV file rendered")

	return &services.PaymentFile{
		Format:       FormatCSV,
		Filename:     fmt.Sprintf("payment-run-%s.csv", run.Name),
		Content:      buf.String(),
		PaymentLines: run.InvoiceCount,
		GeneratedAt:  time.Now(),
	}, nil
}

// toPence converts a decimal amount to minor units using the same half-up
// rounding as the CIS calculator, so the bank file and the CIS reports can
// never disagree by a penny.
func toPence(amount decimal.Decimal) int64 {
	return amount.Mul(penceFactor).Round(0).IntPart()
}

// fixedWidth truncates or space-pads s to exactly width characters,
// left-justified.
func fixedWidth(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// zeroPad left-pads s with zeros to exactly width characters. Inputs longer
// than width are kept as-is rather than truncated; bank-side validation will
// reject them, which is preferable to corrupting an account number.
func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// digitsOnly strips every non-numeric character, turning "12-34-56" into
// "123456".
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}
