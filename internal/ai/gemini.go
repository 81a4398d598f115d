package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/edgard/weatherscent/internal/config"
)

type geminiCompleter struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func newGeminiCompleter(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*geminiCompleter, error) {
	if strings.HasPrefix(cfg.Model, "gpt-") {
		return nil, fmt.Errorf("model %q is not a Gemini model", cfg.Model)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiCompleter{
		client: client,
		model:  cfg.Model,
		logger: logger.With("provider", "gemini"),
	}, nil
}

func (c *geminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	temperature := p.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}
	if p.System != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.System}}}
	}

	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.logger.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("gemini request blocked by safety filter: %s", reason)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini response contained no text")
	}
	return text, nil
}
