package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"cispay/internal/logger"
	"cispay/pkg/models"
)

// DocumentAIExtractor implements InvoiceExtractor using Google Document AI.
type DocumentAIExtractor struct {
	client   *documentai.DocumentProcessorClient
	fallback TextExtractor
	config   Config
	log      zerolog.Logger
}

// NewDocumentAIExtractor creates an extractor with credentials from the
// environment. The fallback may be nil; when set it is consulted for invoice
// numbers the structured parser missed.
func NewDocumentAIExtractor(ctx context.Context, fallback TextExtractor) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	config := Config{
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    os.Getenv("GOOGLE_CLOUD_LOCATION"),
		ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
		Timeout:     60 * time.Second,
	}

	if config.ProjectID == "" {
		return nil, wrapExtractionError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, wrapExtractionError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "eu"
	}

	// Regional endpoint for non-US processors
	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, wrapExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, wrapExtractionError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIExtractor{
		client:   client,
		fallback: fallback,
		config:   config,
		log:      logger.WithComponent("document-ai"),
	}, nil
}

// NewDocumentAIExtractorWithConfig creates an extractor with explicit config
// and client (for testing).
func NewDocumentAIExtractorWithConfig(config Config, client *documentai.DocumentProcessorClient) *DocumentAIExtractor {
	return &DocumentAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// ExtractInvoice extracts a draft invoice from a PDF.
func (p *DocumentAIExtractor) ExtractInvoice(ctx context.Context, pdfData io.Reader) (*models.Invoice, error) {
	inv, _, err := p.ExtractInvoiceWithConfidence(ctx, pdfData)
	return inv, err
}

// ExtractInvoiceWithConfidence extracts a draft invoice with per-field
// confidence scores.
func (p *DocumentAIExtractor) ExtractInvoiceWithConfidence(ctx context.Context, pdfData io.Reader) (*models.Invoice, map[string]float32, error) {
	const op = "ExtractInvoiceWithConfidence"

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, nil, wrapExtractionError(op, err, "failed to read PDF data")
	}

	if len(pdfBytes) > MaxDocumentSizeBytes {
		return nil, nil, wrapExtractionError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, nil, wrapExtractionError(op, ErrInvalidPDF, "missing PDF header")
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, nil, p.classifyError(op, err)
	}
	if resp.Document == nil {
		return nil, nil, wrapExtractionError(op, ErrProcessingFailed, "no document in response")
	}

	inv, confidence := p.buildInvoice(resp.Document)

	// Structured parser found no invoice number: fall back to OCR text
	if inv.InvoiceNumber == "" && p.fallback != nil {
		if number := p.invoiceNumberFromOCR(ctx, pdfBytes); number != "" {
			inv.InvoiceNumber = number
			confidence["invoice_number_fallback"] = 0.6
			p.log.Info().
				Str("invoice_number", number).
				Msg("Invoice number recovered via OCR fallback")
		}
	}

	p.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("supplier", supplierName(inv)).
		Str("amount", inv.Amount.StringFixed(2)).
		Msg("Invoice extraction completed")

	return inv, confidence, nil
}

// processorName constructs the full processor resource name.
func (p *DocumentAIExtractor) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		p.config.ProjectID, p.config.Location, p.config.ProcessorID)
}

// buildInvoice converts Document AI entities into a draft invoice.
func (p *DocumentAIExtractor) buildInvoice(doc *documentaipb.Document) (*models.Invoice, map[string]float32) {
	now := time.Now()
	inv := &models.Invoice{
		ID:        uuid.New(),
		Status:    models.InvoiceStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
		Subcontractor: &models.Subcontractor{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	confidence := make(map[string]float32)

	for _, entity := range doc.Entities {
		entityType := entity.Type
		value := strings.TrimSpace(entity.MentionText)
		confidence[entityType] = entity.Confidence

		p.log.Debug().
			Str("entity_type", entityType).
			Str("value", value).
			Float32("confidence", entity.Confidence).
			Msg("Processing Document AI entity")

		switch entityType {
		case "invoice_id", "invoice_number":
			inv.InvoiceNumber = value
		case "supplier_name", "vendor_name":
			inv.Subcontractor.CompanyName = value
		case "supplier_iban", "supplier_payment_ref":
			// UK invoices carry sort code and account number in free text;
			// leave bank details to the verification step rather than trust
			// a parsed IBAN here.
		case "total_amount", "gross_amount":
			if amount, err := p.extractAmount(entity); err == nil {
				inv.Amount = amount
			} else {
				p.log.Warn().
					Err(err).
					Str("raw_value", value).
					Msg("Failed to extract invoice amount")
			}
		case "purchase_order", "reference_number":
			inv.Description = value
		}
	}

	return inv, confidence
}

// extractAmount safely converts a monetary entity to a decimal amount.
func (p *DocumentAIExtractor) extractAmount(entity *documentaipb.Document_Entity) (decimal.Decimal, error) {
	if entity.NormalizedValue != nil {
		if money := entity.NormalizedValue.GetMoneyValue(); money != nil {
			pence := money.Units*100 + int64(money.Nanos)/10000000
			return decimal.New(pence, -2), nil
		}
	}

	// Fallback to parsing mention text
	amountStr := strings.TrimSpace(entity.MentionText)
	if amountStr == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount value")
	}

	cleaned := strings.NewReplacer("£", "", "$", "", "GBP", "", ",", "", " ", "").Replace(amountStr)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unable to parse amount: %s", amountStr)
	}
	return amount, nil
}

// invoiceNumberFromOCR scans OCR text for an invoice number line.
func (p *DocumentAIExtractor) invoiceNumberFromOCR(ctx context.Context, pdfBytes []byte) string {
	text, err := p.fallback.ExtractText(ctx, strings.NewReader(string(pdfBytes)))
	if err != nil {
		p.log.Warn().Err(err).Msg("OCR fallback failed")
		return ""
	}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, label := range []string{"invoice number", "invoice no", "invoice #"} {
			if idx := strings.Index(lower, label); idx >= 0 {
				candidate := strings.Trim(strings.TrimSpace(line[idx+len(label):]), ":.# ")
				if candidate != "" {
					return strings.Fields(candidate)[0]
				}
			}
		}
	}
	return ""
}

// classifyError converts Document AI errors to extraction errors.
func (p *DocumentAIExtractor) classifyError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return wrapExtractionError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "RESOURCE_EXHAUSTED"):
		return wrapExtractionError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"):
		return wrapExtractionError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return wrapExtractionError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"):
		return wrapExtractionError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return wrapExtractionError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

func supplierName(inv *models.Invoice) string {
	if inv.Subcontractor == nil {
		return ""
	}
	return inv.Subcontractor.CompanyName
}
