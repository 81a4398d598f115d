package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edgard/weatherscent/internal/config"
)

type openAICompleter struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func newOpenAICompleter(cfg config.AIConfig, logger *slog.Logger) *openAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger.With("provider", "openai"),
	}
}

func (c *openAICompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	var messages []openai.ChatCompletionMessage
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: p.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned from OpenAI")
	}

	c.logger.DebugContext(ctx, "OpenAI completion received",
		"finish_reason", resp.Choices[0].FinishReason,
		"tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
