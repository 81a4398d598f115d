package api

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "Health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Storage: h.store.Kind()})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Storage: h.store.Kind()})
}
