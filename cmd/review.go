package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cispay/internal/ingest"
	"cispay/internal/logger"
	"cispay/internal/risk"
	"cispay/pkg/models"
)

var reviewCmd = &cobra.Command{
	Use:   "review [invoices-csv]",
	Short: "Run an advisory fraud-risk review over a pending invoice",
	Long: `Score one invoice for fraud risk against the subcontractor's other
invoices in the same CSV file, using an OpenAI chat completion.

The review is advisory: it prints a risk score, flags and a recommendation
for the operator, and never changes invoice status.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key`,
	Example: `  # Review invoice 1042 against the rest of the file
  cispay review invoices.csv --invoice 1042

  # Machine-readable output
  cispay review invoices.csv --invoice 1042 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("invoice", "", "Invoice number to review (required)")
	reviewCmd.Flags().Bool("json", false, "Output as JSON format")
	_ = reviewCmd.MarkFlagRequired("invoice")
}

func runReview(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("review")

	invoiceNumber, _ := cmd.Flags().GetString("invoice")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	invoices, err := ingest.NewReader().ReadInvoices(args[0])
	if err != nil {
		return err
	}

	var target *models.Invoice
	var history []*models.Invoice
	for _, inv := range invoices {
		if inv.InvoiceNumber == invoiceNumber {
			target = inv
			continue
		}
		history = append(history, inv)
	}
	if target == nil {
		return fmt.Errorf("invoice %s not found in %s", invoiceNumber, args[0])
	}

	reviewer, err := risk.NewOpenAIReviewer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	assessment, err := reviewer.Review(ctx, target, history)
	if err != nil {
		log.Error().
			Err(err).
			Str("invoice", invoiceNumber).
			Msg("Risk review failed")
		return err
	}

	if jsonOutput {
		out, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal assessment: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Invoice %s (%s, £%s)\n",
		target.InvoiceNumber,
		target.Subcontractor.CompanyName,
		target.Amount.StringFixed(2))
	fmt.Printf("Risk score:     %d/100\n", assessment.Score)
	fmt.Printf("Recommendation: %s\n", assessment.Recommendation)
	for _, flag := range assessment.Flags {
		fmt.Printf("  - %s\n", flag)
	}
	if assessment.Reasoning != "" {
		fmt.Printf("Reasoning: %s\n", assessment.Reasoning)
	}
	return nil
}
