package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cispay/internal/cis"
	"cispay/internal/ingest"
	"cispay/internal/logger"
)

var returnCmd = &cobra.Command{
	Use:   "return [paid-invoices-csv]",
	Short: "Summarise paid invoices for the CIS300 monthly return",
	Long: `Aggregate PAID invoices into per-subcontractor totals for one CIS tax
month (6th to 5th), ready for the HMRC CIS300 monthly return.

The input CSV must carry the optional payment date column (J); invoices
without a payment date inside the period are ignored.`,
	Example: `  # Return for the tax month containing 2026-08-20 (6 Aug - 5 Sep)
  cispay return paid.csv --month 2026-08-20

  # JSON output
  cispay return paid.csv --month 2026-08-20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runReturn,
}

func init() {
	rootCmd.AddCommand(returnCmd)

	returnCmd.Flags().String("month", "", "Any date inside the tax month as YYYY-MM-DD (default today)")
	returnCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runReturn(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("return")

	monthFlag, _ := cmd.Flags().GetString("month")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	periodDate := time.Now()
	if monthFlag != "" {
		parsed, err := time.Parse("2006-01-02", monthFlag)
		if err != nil {
			return fmt.Errorf("invalid month date %q (expected YYYY-MM-DD): %w", monthFlag, err)
		}
		periodDate = parsed
	}

	invoices, err := ingest.NewReader().ReadInvoices(args[0])
	if err != nil {
		return err
	}

	summary := cis.NewReturnBuilder().MonthlyReturn(invoices, periodDate)

	log.Info().
		Int("lines", len(summary.Lines)).
		Str("total_deducted", summary.TotalDeducted.StringFixed(2)).
		Msg("Monthly return summarised")

	if jsonOutput {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("CIS return %s to %s\n",
		summary.PeriodStart.Format("2 Jan 2006"),
		summary.PeriodEnd.Format("2 Jan 2006"))
	for _, line := range summary.Lines {
		fmt.Printf("  %-30s UTR %-12s paid £%s deducted £%s (%d invoices)\n",
			line.SubcontractorName, line.UTR,
			line.TotalPaid.StringFixed(2),
			line.TotalDeducted.StringFixed(2),
			line.InvoiceCount)
	}
	fmt.Printf("Total paid £%s, total deducted £%s\n",
		summary.TotalPaid.StringFixed(2),
		summary.TotalDeducted.StringFixed(2))
	return nil
}
