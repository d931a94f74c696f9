package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cispay/internal/extract"
	"cispay/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract invoice data from a subcontractor PDF invoice",
	Long: `Extract the invoice number, supplier and gross amount from a
subcontractor PDF invoice using Google Document AI, producing a draft
SUBMITTED invoice for review.

When the structured parser cannot find an invoice number, the Vision OCR
fallback scans the raw document text for one (enable with --ocr-fallback).

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  GOOGLE_CLOUD_LOCATION - Processing location (us, eu, etc.)
  DOCUMENT_AI_PROCESSOR_ID - Your Document AI invoice processor ID`,
	Example: `  # Extract invoice data (console output)
  cispay extract invoice.pdf

  # JSON output with confidence scores
  cispay extract invoice.pdf --json

  # Use the OCR fallback for scanned invoices
  cispay extract invoice.pdf --ocr-fallback`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("json", false, "Output as JSON format")
	extractCmd.Flags().Bool("ocr-fallback", false, "Use Vision OCR when the invoice parser finds no invoice number")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	ocrFallback, _ := cmd.Flags().GetBool("ocr-fallback")

	pdfPath := args[0]

	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		return fmt.Errorf("error accessing PDF file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	var fallback extract.TextExtractor
	if ocrFallback {
		ocr, err := extract.NewVisionTextExtractor(ctx)
		if err != nil {
			return fmt.Errorf("failed to create OCR fallback: %w", err)
		}
		fallback = ocr
	}

	extractor, err := extract.NewDocumentAIExtractor(ctx, fallback)
	if err != nil {
		return fmt.Errorf("failed to create invoice extractor: %w", err)
	}

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer func() {
		if closeErr := pdfFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close PDF file")
		}
	}()

	log.Info().
		Str("file", pdfPath).
		Int64("size", fileInfo.Size()).
		Msg("Extracting invoice data from PDF")

	startTime := time.Now()
	inv, confidence, err := extractor.ExtractInvoiceWithConfidence(ctx, pdfFile)
	if err != nil {
		log.Error().Err(err).Str("file", pdfPath).Msg("Invoice extraction failed")
		return err
	}
	duration := time.Since(startTime)

	if jsonOutput {
		out, err := json.MarshalIndent(struct {
			InvoiceNumber string             `json:"invoice_number"`
			Supplier      string             `json:"supplier"`
			Amount        string             `json:"amount"`
			Status        string             `json:"status"`
			Confidence    map[string]float32 `json:"confidence"`
			DurationMS    int64              `json:"duration_ms"`
		}{
			InvoiceNumber: inv.InvoiceNumber,
			Supplier:      inv.Subcontractor.CompanyName,
			Amount:        inv.Amount.StringFixed(2),
			Status:        inv.Status,
			Confidence:    confidence,
			DurationMS:    duration.Milliseconds(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Invoice number: %s\n", inv.InvoiceNumber)
	fmt.Printf("Supplier:       %s\n", inv.Subcontractor.CompanyName)
	fmt.Printf("Gross amount:   £%s\n", inv.Amount.StringFixed(2))
	fmt.Printf("Status:         %s\n", inv.Status)
	fmt.Printf("Processed in %s\n", duration.Round(time.Millisecond))
	return nil
}
