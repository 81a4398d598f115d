package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/weatherscent/internal/ai"
	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/cache"
	"github.com/edgard/weatherscent/internal/metrics"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/recommend"
	"github.com/edgard/weatherscent/internal/weather"
)

type weatherRecommendationRequest struct {
	WeatherData     *model.WeatherReading  `json:"weatherData"`
	UserPreferences *model.UserPreferences `json:"userPreferences"`
	UserID          *int64                 `json:"userId"`
}

type weatherRecommendationResponse struct {
	Recommendations []model.Suggestion   `json:"recommendations"`
	MoodText        string               `json:"moodText"`
	WeatherData     model.WeatherReading `json:"weatherData"`
}

// WeatherRecommendations handles POST /api/recommendations/weather. With a
// userId the suggestions are matched to the catalog and logged.
func (h *Handler) WeatherRecommendations(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to get recommendations"

	var req weatherRecommendationRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	if req.WeatherData == nil {
		h.respondError(w, r, apperr.NewValidationError("Weather data is required", nil), failed)
		return
	}
	reading := *req.WeatherData

	suggestions, err := h.advisor.WeatherRecommendations(r.Context(), reading, req.UserPreferences)
	if err != nil {
		h.respondError(w, r, aiError(err, failed), failed)
		return
	}

	if req.UserID != nil && *req.UserID > 0 && len(suggestions) > 0 {
		if _, err := h.store.SaveSuggestions(r.Context(), *req.UserID, reading, suggestions); err != nil {
			h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
			return
		}
	}

	respondJSON(w, http.StatusOK, weatherRecommendationResponse{
		Recommendations: suggestions,
		MoodText:        weather.DeriveMood(reading),
		WeatherData:     reading,
	})
}

// CombinedRecommendation handles POST /api/recommendations. The result is
// kept in the shared-result cache under a fresh id.
func (h *Handler) CombinedRecommendation(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to get recommendations"

	var req model.CombinedRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, r, apperr.NewValidationError("Mood and purpose are required", err), failed)
		return
	}

	all, err := h.store.GetAllPerfumes(r.Context())
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}

	candidates := recommend.PrepareCandidates(all, req.PreferredScents)
	picks := h.advisor.CombinedRecommendation(r.Context(), req, candidates)
	perfumes := recommend.Select(picks.Picks, all, req.PreferredScents, func(p model.Perfume) string {
		return ai.FallbackReason(req, p)
	})

	result := model.CombinedResult{
		ID:       h.newID(),
		Mood:     req.Mood,
		Weather:  req.Weather,
		Perfumes: perfumes,
		MoodText: picks.MoodText,
		Summary:  picks.Summary,
	}

	if err := h.results.Save(r.Context(), result.ID, result); err != nil {
		metrics.SharedResults.WithLabelValues("save", "error").Inc()
		h.logger.WarnContext(r.Context(), "Failed to store shared result", "result_id", result.ID, "error", err)
	} else {
		metrics.SharedResults.WithLabelValues("save", "ok").Inc()
	}

	h.logger.InfoContext(r.Context(), "Combined recommendation generated",
		"result_id", result.ID, "perfumes", len(perfumes), "fallback", picks.Fallback)
	respondJSON(w, http.StatusOK, result)
}

// SharedRecommendation handles GET /api/recommendations/shared/{id}.
func (h *Handler) SharedRecommendation(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch recommendation"

	result, err := h.results.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, cache.ErrNotFound):
		metrics.SharedResults.WithLabelValues("get", "miss").Inc()
		h.respondError(w, r, apperr.NewNotFoundError("Recommendation not found"), failed)
		return
	case err != nil:
		metrics.SharedResults.WithLabelValues("get", "error").Inc()
		h.respondError(w, r, err, failed)
		return
	}
	metrics.SharedResults.WithLabelValues("get", "hit").Inc()
	respondJSON(w, http.StatusOK, result)
}

// UserRecommendations handles GET /api/recommendations/{userId}.
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch recommendations"

	userID, err := pathID(r, "userId")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	recs, err := h.store.GetRecommendationsWithPerfumes(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}
