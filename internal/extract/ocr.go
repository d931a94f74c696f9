package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"cispay/internal/logger"
)

// VisionTextExtractor implements TextExtractor using Google Cloud Vision
// document text detection. It is the fallback path for scanned invoices.
type VisionTextExtractor struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionTextExtractor creates an OCR text extractor with credentials from
// the environment.
func NewVisionTextExtractor(ctx context.Context) (*VisionTextExtractor, error) {
	const op = "NewVisionTextExtractor"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
	} else {
		// Try application default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, wrapExtractionError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}
	if err != nil {
		return nil, wrapExtractionError(op, err, "failed to create Vision client")
	}

	return &VisionTextExtractor{
		client: client,
		log:    logger.WithComponent("ocr"),
	}, nil
}

// ExtractText extracts the full text of a PDF document.
func (v *VisionTextExtractor) ExtractText(ctx context.Context, pdfData io.Reader) (string, error) {
	const op = "ExtractText"

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return "", wrapExtractionError(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxDocumentSizeBytes {
		return "", wrapExtractionError(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return "", wrapExtractionError(op, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return "", wrapExtractionError(op, err, "Vision API request failed")
	}
	if len(resp.Responses) == 0 {
		return "", wrapExtractionError(op, ErrNoText, "empty Vision API response")
	}

	var sb strings.Builder
	for _, fileResp := range resp.Responses {
		for _, pageResp := range fileResp.Responses {
			if annotation := pageResp.GetFullTextAnnotation(); annotation != nil {
				sb.WriteString(annotation.Text)
				sb.WriteString("\n")
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", wrapExtractionError(op, ErrNoText, "document contains no readable text")
	}

	v.log.Debug().
		Int("bytes", len(pdfBytes)).
		Int("text_length", len(text)).
		Msg("OCR text extraction completed")

	return text, nil
}
