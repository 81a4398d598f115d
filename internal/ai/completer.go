// Package ai talks to the language model behind the recommendation, chat and
// preference-analysis features.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/edgard/weatherscent/internal/config"
)

var (
	// ErrUnavailable is returned when no API key is configured.
	ErrUnavailable = errors.New("AI service is not configured")
	// ErrMalformedResponse is returned when the model output holds no usable JSON.
	ErrMalformedResponse = errors.New("malformed AI response")
)

// Prompt is a single JSON-mode completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// Completer sends a prompt to a language model and returns its raw JSON
// answer.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// NewCompleter builds the provider named in cfg. It returns nil, nil when
// no API key is configured.
func NewCompleter(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		logger.InfoContext(ctx, "No AI API key configured, live completions disabled", "provider", cfg.Provider)
		return nil, nil
	}

	logger.InfoContext(ctx, "Initializing AI client", "provider", cfg.Provider, "model", cfg.Model)
	switch cfg.Provider {
	case "openai":
		return newOpenAICompleter(cfg, logger), nil
	case "gemini":
		c, err := newGeminiCompleter(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown AI provider specified: %s", cfg.Provider)
	}
}

// decodeJSON unmarshals the outermost JSON object in raw. Models sometimes
// wrap the object in prose or code fences.
func decodeJSON(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
