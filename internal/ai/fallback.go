package ai

import (
	"fmt"

	"github.com/edgard/weatherscent/internal/model"
)

// FallbackPicks builds the deterministic combined recommendation from the
// first three candidates.
func FallbackPicks(req model.CombinedRequest, candidates []model.Perfume) *CombinedPicks {
	n := min(maxSuggestions, len(candidates))
	picks := make([]Pick, 0, n)
	for _, p := range candidates[:n] {
		picks = append(picks, Pick{
			Name:   p.Name,
			Brand:  p.Brand,
			Reason: FallbackReason(req, p),
		})
	}
	return &CombinedPicks{
		MoodText: fallbackMoodText(req),
		Summary:  fallbackSummary(req),
		Picks:    picks,
		Fallback: true,
	}
}

// FallbackReason explains a template pick from the mood, purpose, category
// and brand.
func FallbackReason(req model.CombinedRequest, p model.Perfume) string {
	return fmt.Sprintf("%s 기분에 잘 어울리는 %s 계열의 향수로, %s 용도로 사용하기 좋은 %s의 제품입니다.",
		req.Mood, p.Category, req.Purpose, p.Brand)
}

func fallbackMoodText(req model.CombinedRequest) string {
	if req.Weather != nil {
		return fmt.Sprintf("%d°C %s 날씨에 %s 기분으로 보내는 하루를 위한 향수를 추천합니다.",
			req.Weather.Temperature, weatherLabel(*req.Weather), req.Mood)
	}
	return fmt.Sprintf("%s 기분과 %s 목적에 어울리는 향수를 추천합니다.", req.Mood, req.Purpose)
}

func fallbackSummary(req model.CombinedRequest) string {
	return fmt.Sprintf("%s 기분에 %s 목적으로 추천한 향수입니다.", req.Mood, req.Purpose)
}

// weatherLabel prefers the localized description over the raw condition.
func weatherLabel(r model.WeatherReading) string {
	if r.Description != "" {
		return r.Description
	}
	return r.Condition
}
