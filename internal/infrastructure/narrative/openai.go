// Package narrative writes the prose summary that accompanies a proposal.
// Narrative text is display-only; pricing never depends on it.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	proposalapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4o-mini"

// DefaultTimeout bounds one completion request
const DefaultTimeout = 30 * time.Second

const systemPrompt = "You write short, factual sales proposal summaries for business clients. " +
	"Use only the figures given. Do not invent prices, discounts or products. " +
	"Answer in two short paragraphs of plain text."

// HTTPGenerator asks an OpenAI-compatible chat completion endpoint for the narrative
type HTTPGenerator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewHTTPGenerator creates a generator for the given base URL, e.g. https://api.openai.com/v1
func NewHTTPGenerator(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *HTTPGenerator {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &HTTPGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.Named("narrative"),
	}
}

// Generate implements proposalapp.NarrativeGenerator.
// Rate limiting, server errors and transport failures are transient.
func (g *HTTPGenerator) Generate(ctx context.Context, req proposalapp.NarrativeRequest) (string, error) {
	if req.Proposal == nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "proposal is required")
	}
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		g.logger.Warn("Narrative request failed",
			zap.String("proposal_id", req.Proposal.ID.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", shared.NewDomainError(shared.CodeNarrativeUnavailable, "narrative endpoint returned no text")
	}
	g.logger.Debug("Narrative generated",
		zap.String("proposal_id", req.Proposal.ID.String()),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		// no HTTP response at all
		return shared.NewTransientError(err)
	}
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return shared.NewTransientError(err)
	}
	return shared.NewDomainError(shared.CodeNarrativeUnavailable, fmt.Sprintf("narrative endpoint rejected the request (status %d)", status))
}
