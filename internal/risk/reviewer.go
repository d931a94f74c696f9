// Package risk provides advisory fraud-risk scoring of subcontractor
// invoices using an OpenAI chat completion. The review is advisory only: a
// failed or unavailable review never blocks the payment pipeline.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"cispay/internal/logger"
	"cispay/pkg/models"
)

// Assessment is the structured outcome of a risk review.
type Assessment struct {
	Score          int      `json:"risk_score"`     // 0 (clean) to 100 (near-certain fraud)
	Flags          []string `json:"flags"`          // Specific concerns found
	Recommendation string   `json:"recommendation"` // "approve", "review" or "reject"
	Reasoning      string   `json:"reasoning"`      // Short explanation for the operator
}

// Reviewer defines the interface for invoice risk scoring.
type Reviewer interface {
	Review(ctx context.Context, inv *models.Invoice, history []*models.Invoice) (*Assessment, error)
}

// OpenAIReviewer implements Reviewer using the OpenAI chat completion API.
type OpenAIReviewer struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIReviewer creates a reviewer with the API key from the environment.
func NewOpenAIReviewer() (*OpenAIReviewer, error) {
	const op = "NewOpenAIReviewer"

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%s: OPENAI_API_KEY environment variable is required", op)
	}

	return &OpenAIReviewer{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
		log:    logger.WithComponent("risk-review"),
	}, nil
}

// NewOpenAIReviewerWithClient creates a reviewer with an explicit client
// (for testing).
func NewOpenAIReviewerWithClient(client *openai.Client) *OpenAIReviewer {
	return &OpenAIReviewer{
		client: client,
		model:  openai.GPT4oMini,
		log:    logger.WithComponent("risk-review"),
	}
}

// Review scores one invoice against the subcontractor's recent invoice
// history.
func (r *OpenAIReviewer) Review(ctx context.Context, inv *models.Invoice, history []*models.Invoice) (*Assessment, error) {
	const op = "Review"

	r.log.Info().
		Str("invoice", inv.InvoiceNumber).
		Str("amount", inv.Amount.StringFixed(2)).
		Int("history_size", len(history)).
		Msg("Starting invoice risk review")

	prompt, err := r.buildPrompt(inv, history)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build prompt: %w", op, err)
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: chat completion failed: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: empty completion response", op)
	}

	var assessment Assessment
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &assessment); err != nil {
		return nil, fmt.Errorf("%s: failed to parse assessment JSON: %w", op, err)
	}

	if assessment.Score < 0 {
		assessment.Score = 0
	}
	if assessment.Score > 100 {
		assessment.Score = 100
	}

	r.log.Info().
		Str("invoice", inv.InvoiceNumber).
		Int("risk_score", assessment.Score).
		Str("recommendation", assessment.Recommendation).
		Strs("flags", assessment.Flags).
		Msg("Invoice risk review completed")

	return &assessment, nil
}

const systemPrompt = `You are a fraud analyst for a UK construction company reviewing subcontractor invoices under the Construction Industry Scheme.
Assess the invoice for fraud risk: duplicate billing, round-sum amounts, sudden amount jumps versus history, missing or changed bank details, unverified subcontractors.
Respond with a JSON object: {"risk_score": 0-100, "flags": [..], "recommendation": "approve"|"review"|"reject", "reasoning": "..."}.`

// buildPrompt serialises the invoice and history for the model.
func (r *OpenAIReviewer) buildPrompt(inv *models.Invoice, history []*models.Invoice) (string, error) {
	type invoiceSummary struct {
		InvoiceNumber      string `json:"invoice_number"`
		Subcontractor      string `json:"subcontractor"`
		VerificationStatus string `json:"verification_status,omitempty"`
		HasBankDetails     bool   `json:"has_bank_details"`
		Amount             string `json:"amount"`
		DeductionRate      string `json:"deduction_rate"`
		Status             string `json:"status"`
	}

	summarise := func(i *models.Invoice) invoiceSummary {
		s := invoiceSummary{
			InvoiceNumber: i.InvoiceNumber,
			Amount:        i.Amount.StringFixed(2),
			DeductionRate: i.Rate().String(),
			Status:        i.Status,
		}
		if i.Subcontractor != nil {
			s.Subcontractor = i.Subcontractor.CompanyName
			s.VerificationStatus = i.Subcontractor.VerificationStatus
			s.HasBankDetails = i.Subcontractor.HasBankDetails()
		}
		return s
	}

	payload := struct {
		Invoice invoiceSummary   `json:"invoice"`
		History []invoiceSummary `json:"recent_invoices"`
	}{Invoice: summarise(inv)}
	for _, h := range history {
		payload.History = append(payload.History, summarise(h))
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
