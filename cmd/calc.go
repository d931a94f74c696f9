package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cispay/internal/cis"
	"cispay/internal/logger"
)

var calcCmd = &cobra.Command{
	Use:   "calc [amount]",
	Short: "Compute the CIS deduction and net payment for an invoice amount",
	Long: `Compute the Construction Industry Scheme deduction for a gross invoice
amount at the subcontractor's verified deduction rate.

The rate can be given directly with --rate, or derived from the HMRC
verification outcome with --status (gross = 0%, matched = 20%,
unmatched = 30%). The deduction is rounded to the penny half-up, so
repeating a calculation always gives the same result.`,
	Example: `  # Standard 20% deduction on a £1,000 invoice
  cispay calc 1000.00 --rate 20

  # Rate derived from verification status
  cispay calc 2450.75 --status unmatched

  # Machine-readable output
  cispay calc 1000.00 --rate 20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCalc,
}

func init() {
	rootCmd.AddCommand(calcCmd)

	calcCmd.Flags().String("rate", "", "Deduction rate percentage (0-30)")
	calcCmd.Flags().String("status", "", "CIS verification status (gross, matched, unmatched)")
	calcCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runCalc(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("calc")

	rateFlag, _ := cmd.Flags().GetString("rate")
	statusFlag, _ := cmd.Flags().GetString("status")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}

	var rate decimal.Decimal
	switch {
	case rateFlag != "" && statusFlag != "":
		return fmt.Errorf("--rate and --status are mutually exclusive")
	case rateFlag != "":
		rate, err = decimal.NewFromString(rateFlag)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", rateFlag, err)
		}
	case statusFlag != "":
		rate, err = cis.RateForStatus(strings.ToUpper(statusFlag))
		if err != nil {
			return fmt.Errorf("invalid verification status %q: %w", statusFlag, err)
		}
	default:
		return fmt.Errorf("either --rate or --status is required")
	}

	result, err := cis.Calculate(amount, &rate)
	if err != nil {
		log.Error().
			Err(err).
			Str("amount", amount.String()).
			Str("rate", rate.String()).
			Msg("CIS calculation failed")
		return err
	}

	log.Info().
		Str("amount", amount.StringFixed(2)).
		Str("rate", rate.String()).
		Str("deduction", result.CISDeduction.StringFixed(2)).
		Str("net_payment", result.NetPayment.StringFixed(2)).
		Msg("CIS deduction calculated")

	if jsonOutput {
		out, err := json.MarshalIndent(map[string]string{
			"amount":        amount.StringFixed(2),
			"rate":          rate.String(),
			"cis_deduction": result.CISDeduction.StringFixed(2),
			"net_payment":   result.NetPayment.StringFixed(2),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Gross amount:   £%s\n", amount.StringFixed(2))
	fmt.Printf("Deduction rate: %s%%\n", rate.String())
	fmt.Printf("CIS deduction:  £%s\n", result.CISDeduction.StringFixed(2))
	fmt.Printf("Net payment:    £%s\n", result.NetPayment.StringFixed(2))
	return nil
}
