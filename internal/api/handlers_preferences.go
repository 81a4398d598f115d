package api

import (
	"net/http"

	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/model"
)

type analyzePreferencesRequest struct {
	Answers model.PreferenceAnswers `json:"answers"`
	UserID  *int64                  `json:"userId"`
}

// AnalyzePreferences handles POST /api/preferences/analyze. With a userId
// the test replaces any earlier one and, when the analysis carries a
// profile, the profile becomes the user's preferences.
func (h *Handler) AnalyzePreferences(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to analyze preferences"

	var req analyzePreferencesRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	if len(req.Answers) == 0 {
		h.respondError(w, r, apperr.NewValidationError("Valid answers array is required", nil), failed)
		return
	}

	analysis, err := h.advisor.AnalyzePreferences(r.Context(), req.Answers)
	if err != nil {
		h.respondError(w, r, aiError(err, failed), failed)
		return
	}

	if req.UserID != nil && *req.UserID > 0 {
		if _, err := h.store.SavePreferenceResult(r.Context(), &model.PreferenceTest{
			UserID:  *req.UserID,
			Answers: req.Answers,
			Results: analysis,
		}, analysis.Profile); err != nil {
			h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
			return
		}
	}

	respondJSON(w, http.StatusOK, analysis)
}

// GetPreferences handles GET /api/preferences/{userId}. The body is null
// when the user never took the test.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch preferences"

	userID, err := pathID(r, "userId")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	test, err := h.store.GetPreferenceTestByUserID(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, test)
}
