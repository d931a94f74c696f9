package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cispay/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cispay",
	Short: "cispay - CIS deductions and BACS payment runs for construction contractors",
	Long: `cispay is a command-line toolkit for UK construction contractors:
compute Construction Industry Scheme (CIS) deductions, build payment runs
from approved subcontractor invoices, and render BACS or CSV payment files
ready for the bank.

It also extracts invoice data from subcontractor PDFs, runs advisory
fraud-risk reviews, and summarises payments for the CIS300 monthly return.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("cispay executed")

		fmt.Println("cispay - CIS deductions and BACS payment runs.")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
