package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cispay/internal/bacs"
	"cispay/internal/ingest"
	"cispay/internal/logger"
	"cispay/internal/payrun"
	"cispay/internal/sheets"
	"cispay/pkg/models"
	"cispay/pkg/services"
)

var runCmd = &cobra.Command{
	Use:   "run [invoices-csv]",
	Short: "Build a payment run from approved invoices and render a bank file",
	Long: `Build a payment run from a CSV export of approved subcontractor invoices
and render it as a BACS payment file or a CSV audit listing.

Every invoice in the file must be APPROVED; one ineligible invoice rejects
the whole run. Invoices whose subcontractor has incomplete bank details are
excluded from the BACS file (but not the CSV) and reported so the count
discrepancy is visible.

With --audit-sheet the export is also recorded in the configured Google
Sheet (requires GOOGLE_SHEET_URL and Google credentials).`,
	Example: `  # Render a BACS file for this week's run
  cispay run approved.csv --name 2026-W35 --format bacs

  # CSV audit listing for the same run
  cispay run approved.csv --name 2026-W35 --format csv

  # Override the processing date and write into a directory
  cispay run approved.csv --name 2026-W35 --date 2026-09-01 --out ./exports

  # Record the export in the audit spreadsheet
  cispay run approved.csv --name 2026-W35 --audit-sheet`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("name", "", "Payment run name (required)")
	runCmd.Flags().String("format", bacs.FormatBACS, "Output format (bacs, csv)")
	runCmd.Flags().String("date", "", "Processing date as YYYY-MM-DD (default today)")
	runCmd.Flags().String("out", ".", "Directory to write the payment file into")
	runCmd.Flags().Bool("audit-sheet", false, "Record the export in the Google Sheets audit log")
	_ = runCmd.MarkFlagRequired("name")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("run")

	name, _ := cmd.Flags().GetString("name")
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	dateFlag, _ := cmd.Flags().GetString("date")
	outDir, _ := cmd.Flags().GetString("out")
	auditSheet, _ := cmd.Flags().GetBool("audit-sheet")

	processingDate := time.Now()
	if dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", dateFlag)
		if err != nil {
			return fmt.Errorf("invalid processing date %q (expected YYYY-MM-DD): %w", dateFlag, err)
		}
		processingDate = parsed
	}

	log.Info().
		Str("file", args[0]).
		Str("run", name).
		Str("format", format).
		Msg("Building payment run")

	invoices, err := ingest.NewReader().ReadInvoices(args[0])
	if err != nil {
		return err
	}

	run, err := payrun.NewBuilder().Build(name, invoices)
	if err != nil {
		return err
	}
	if err := payrun.MarkReady(run); err != nil {
		return err
	}

	file, err := bacs.NewRenderer().Render(run, format, processingDate)
	if err != nil {
		return err
	}

	// A generated bank file is the trigger for the one-way EXPORTED transition
	if format == bacs.FormatBACS {
		if err := payrun.MarkExported(run, file.GeneratedAt); err != nil {
			return err
		}
	}

	outPath := filepath.Join(outDir, file.Filename)
	if err := os.WriteFile(outPath, []byte(file.Content), 0644); err != nil {
		return fmt.Errorf("failed to write payment file: %w", err)
	}

	fmt.Printf("Payment run %s: %d invoices, total £%s, deduction £%s, net £%s\n",
		run.Name, run.InvoiceCount,
		run.TotalAmount.StringFixed(2),
		run.TotalDeduction.StringFixed(2),
		run.NetPayment.StringFixed(2))
	fmt.Printf("Wrote %s (%d payment lines)\n", outPath, file.PaymentLines)

	// Skips are a caller-visible discrepancy, never silent
	if file.HasSkips() {
		fmt.Printf("WARNING: %d of %d invoices excluded from the bank file:\n",
			len(file.Skipped), run.InvoiceCount)
		for _, skip := range file.Skipped {
			fmt.Printf("  - %s (%s): %s\n", skip.InvoiceNumber, skip.Subcontractor, skip.Reason)
		}
	}

	if auditSheet {
		if err := recordAuditExport(cmd.Context(), run, file); err != nil {
			// Audit logging must not undo a completed export
			log.Error().Err(err).Msg("Failed to record export in audit sheet")
			fmt.Printf("WARNING: export succeeded but audit sheet update failed: %v\n", err)
		}
	}

	return nil
}

// recordAuditExport appends the export to the configured audit spreadsheet.
func recordAuditExport(ctx context.Context, run *models.PaymentRun, file *services.PaymentFile) error {
	sheetURL := os.Getenv("GOOGLE_SHEET_URL")
	if sheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required for --audit-sheet")
	}
	worksheet := os.Getenv("GOOGLE_SHEET_WORKSHEET")
	if worksheet == "" {
		worksheet = "Payment_Runs"
	}

	svc, err := sheets.NewService(ctx, sheetURL)
	if err != nil {
		return err
	}
	return svc.AppendRunExport(ctx, run, file, worksheet)
}
