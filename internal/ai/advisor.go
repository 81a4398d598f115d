package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/metrics"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/resilience"
)

const (
	serviceName = "ai"

	maxSuggestions  = 3
	chatTemperature = 0.8
	maxPromptPicks  = 20
)

// Pick is one perfume chosen by the combined recommendation.
type Pick struct {
	Name   string `json:"name"`
	Brand  string `json:"brand"`
	Reason string `json:"reason"`
}

// CombinedPicks is the outcome of CombinedRecommendation. Fallback is set
// when the picks come from the template instead of the model.
type CombinedPicks struct {
	MoodText string `json:"moodText"`
	Summary  string `json:"summary"`
	Picks    []Pick `json:"recommendedPerfumes"`
	Fallback bool   `json:"-"`
}

// Advisor implements the four recommendation operations on top of a
// Completer. Only CombinedRecommendation degrades to a template; the others
// fail with ErrUnavailable or the call error.
type Advisor struct {
	completer   Completer
	breaker     *resilience.CircuitBreaker[string]
	temperature float32
	logger      *slog.Logger
}

// NewAdvisor creates an Advisor. completer may be nil.
func NewAdvisor(completer Completer, cfg config.AIConfig, log *slog.Logger) *Advisor {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "advisor")
	return &Advisor{
		completer: completer,
		breaker: resilience.NewCircuitBreaker[string](resilience.CircuitBreakerConfig{
			Name:          serviceName,
			MaxFailures:   3,
			Timeout:       cfg.Timeout,
			ResetInterval: time.Minute,
			Logger:        log,
		}),
		temperature: cfg.Temperature,
		logger:      log,
	}
}

// Available reports whether live completions are configured.
func (a *Advisor) Available() bool {
	return a.completer != nil
}

func (a *Advisor) complete(ctx context.Context, op string, p Prompt) (string, error) {
	if a.completer == nil {
		return "", ErrUnavailable
	}

	start := time.Now()
	raw, err := a.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return a.completer.Complete(ctx, p)
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeRejected, 0)
		a.logger.WarnContext(ctx, "AI circuit open, call rejected", "operation", op)
		return "", fmt.Errorf("%s: %w", op, err)
	case err != nil:
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFailure, time.Since(start))
		a.logger.ErrorContext(ctx, "AI call failed", "operation", op, "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveExternalCall(serviceName, metrics.OutcomeSuccess, time.Since(start))
	a.logger.DebugContext(ctx, "AI call completed", "operation", op,
		"duration_ms", time.Since(start).Milliseconds(),
		"response", logger.TruncateString(raw, 200))
	return raw, nil
}

func toPrettyJSON(v any, empty string) string {
	if v == nil {
		return empty
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(b) == "null" {
		return empty
	}
	return string(b)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// normalizeSuggestions drops nameless entries, clamps confidence and keeps
// at most limit suggestions.
func normalizeSuggestions(in []model.Suggestion, limit int) []model.Suggestion {
	out := make([]model.Suggestion, 0, min(len(in), limit))
	for _, s := range in {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		s.Confidence = clamp01(s.Confidence)
		if s.Notes == nil {
			s.Notes = []string{}
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// WeatherRecommendations asks the model for up to three perfumes suited to
// the reading. Unparseable output yields an empty list.
func (a *Advisor) WeatherRecommendations(ctx context.Context, reading model.WeatherReading, prefs *model.UserPreferences) ([]model.Suggestion, error) {
	prefsJSON := toPrettyJSON(prefs, noPreferences)

	raw, err := a.complete(ctx, "weather_recommendations", Prompt{
		System:      ConsultantSystemInstruction,
		User:        fmt.Sprintf(WeatherRecommendationPrompt, reading.Temperature, reading.Condition, reading.Humidity, reading.Location, prefsJSON),
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Recommendations []model.Suggestion `json:"recommendations"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		a.logger.WarnContext(ctx, "Discarding unparseable weather recommendations", "error", err)
		return []model.Suggestion{}, nil
	}
	return normalizeSuggestions(parsed.Recommendations, maxSuggestions), nil
}

// AnalyzePreferences turns quiz answers into a scent profile.
func (a *Advisor) AnalyzePreferences(ctx context.Context, answers model.PreferenceAnswers) (*model.PreferenceAnalysis, error) {
	raw, err := a.complete(ctx, "analyze_preferences", Prompt{
		System:      ConsultantSystemInstruction,
		User:        fmt.Sprintf(PreferenceAnalysisPrompt, toPrettyJSON(answers, "[]")),
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, err
	}

	var analysis model.PreferenceAnalysis
	if err := decodeJSON(raw, &analysis); err != nil {
		return nil, fmt.Errorf("analyze_preferences: %w", err)
	}
	return &analysis, nil
}

// ChatReply answers a free-form chat message. chatContext is passed to the
// model verbatim as JSON and may be nil.
func (a *Advisor) ChatReply(ctx context.Context, message string, chatContext any) (*model.ChatReply, error) {
	raw, err := a.complete(ctx, "chat_reply", Prompt{
		System:      ChatSystemInstruction,
		User:        fmt.Sprintf(ChatPrompt, message, toPrettyJSON(chatContext, noContext)),
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, err
	}

	var reply model.ChatReply
	if err := decodeJSON(raw, &reply); err != nil {
		return nil, fmt.Errorf("chat_reply: %w", err)
	}
	if strings.TrimSpace(reply.Message) == "" {
		return nil, fmt.Errorf("chat_reply: %w: empty message", ErrMalformedResponse)
	}
	if len(reply.Recommendations) == 0 {
		reply.Recommendations = nil
	} else {
		reply.Recommendations = normalizeSuggestions(reply.Recommendations, len(reply.Recommendations))
	}
	return &reply, nil
}

// CombinedRecommendation lets the model choose up to three of the
// candidates. Without a completer, on any call failure or when the output
// holds no picks, the template from FallbackPicks is returned instead.
func (a *Advisor) CombinedRecommendation(ctx context.Context, req model.CombinedRequest, candidates []model.Perfume) *CombinedPicks {
	if a.completer == nil || len(candidates) == 0 {
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFallback, 0)
		return FallbackPicks(req, candidates)
	}

	raw, err := a.complete(ctx, "combined_recommendation", Prompt{
		System:      ConsultantSystemInstruction,
		User:        combinedPrompt(req, candidates),
		Temperature: a.temperature,
	})
	if err != nil {
		a.logger.WarnContext(ctx, "Using template recommendation", "reason", err)
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFallback, 0)
		return FallbackPicks(req, candidates)
	}

	var picks CombinedPicks
	if err := decodeJSON(raw, &picks); err != nil {
		a.logger.WarnContext(ctx, "Using template recommendation", "reason", err)
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFallback, 0)
		return FallbackPicks(req, candidates)
	}

	kept := make([]Pick, 0, maxSuggestions)
	for _, p := range picks.Picks {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		kept = append(kept, p)
		if len(kept) == maxSuggestions {
			break
		}
	}
	if len(kept) == 0 {
		a.logger.WarnContext(ctx, "Using template recommendation", "reason", "model returned no picks")
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFallback, 0)
		return FallbackPicks(req, candidates)
	}
	picks.Picks = kept

	if strings.TrimSpace(picks.MoodText) == "" {
		picks.MoodText = fallbackMoodText(req)
	}
	if strings.TrimSpace(picks.Summary) == "" {
		picks.Summary = fallbackSummary(req)
	}
	return &picks
}

func combinedPrompt(req model.CombinedRequest, candidates []model.Perfume) string {
	type candidate struct {
		Name     string   `json:"name"`
		Brand    string   `json:"brand"`
		Category string   `json:"category"`
		Notes    []string `json:"notes"`
		Rating   int      `json:"rating"`
	}
	list := make([]candidate, 0, min(len(candidates), maxPromptPicks))
	for _, p := range candidates[:min(len(candidates), maxPromptPicks)] {
		list = append(list, candidate{Name: p.Name, Brand: p.Brand, Category: p.Category, Notes: p.Notes, Rating: p.Rating})
	}

	weather := unknownValue
	if req.Weather != nil {
		weather = fmt.Sprintf("%d°C, %s, humidity %d%%", req.Weather.Temperature, weatherLabel(*req.Weather), req.Weather.Humidity)
	}

	return fmt.Sprintf(CombinedRecommendationPrompt,
		orUnknown(req.Gender), orUnknown(req.AgeRange), req.Mood, req.Purpose,
		orUnknown(strings.Join(req.PreferredScents, ", ")), weather,
		toPrettyJSON(list, "[]"))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownValue
	}
	return s
}
