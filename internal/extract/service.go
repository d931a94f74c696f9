// Package extract pulls structured invoice data out of subcontractor PDF
// invoices using Google Cloud Document AI, with a Vision OCR fallback for
// scanned documents that the invoice parser cannot read.
//
// Required environment variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: path to service account JSON file, OR
//     GOOGLE_CREDENTIALS: inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT: Google Cloud project ID
//   - GOOGLE_CLOUD_LOCATION: processing location (e.g. "eu")
//   - DOCUMENT_AI_PROCESSOR_ID: Document AI invoice processor ID
//
// Document AI limits synchronous processing to 20MB per file; extracted
// monetary values are converted to decimals immediately so no float maths
// touches invoice amounts.
package extract

import (
	"context"
	"io"
	"time"

	"cispay/pkg/models"
)

// MaxDocumentSizeBytes is the maximum document size for synchronous
// processing (20MB).
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// InvoiceExtractor defines the interface for invoice extraction services.
type InvoiceExtractor interface {
	// ExtractInvoice extracts a draft invoice from a PDF. The returned
	// invoice carries SUBMITTED status; amounts, deduction and approval are
	// the caller's responsibility.
	ExtractInvoice(ctx context.Context, pdfData io.Reader) (*models.Invoice, error)

	// ExtractInvoiceWithConfidence additionally returns per-field confidence
	// scores (0.0-1.0) keyed by Document AI entity type.
	ExtractInvoiceWithConfidence(ctx context.Context, pdfData io.Reader) (*models.Invoice, map[string]float32, error)
}

// TextExtractor extracts raw text from a document, used as a fallback when
// the structured invoice parser returns nothing useful.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfData io.Reader) (string, error)
}

// Config holds configuration for Document AI processing.
type Config struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g. "us", "eu"). Should match
	// where the processor was created.
	Location string

	// ProcessorID is the Document AI invoice processor ID.
	ProcessorID string

	// Timeout is the maximum time to wait for processing. Default: 60s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Location: "eu",
		Timeout:  60 * time.Second,
	}
}
