package api

import (
	"net/http"

	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/metrics"
	"github.com/edgard/weatherscent/internal/recommend"
)

const msgPerfumeNotFound = "Perfume not found"

// ListPerfumes handles GET /api/perfumes.
func (h *Handler) ListPerfumes(w http.ResponseWriter, r *http.Request) {
	perfumes, err := h.store.GetAllPerfumes(r.Context())
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError("Failed to fetch perfumes", err), "Failed to fetch perfumes")
		return
	}
	respondJSON(w, http.StatusOK, perfumes)
}

// GetPerfume handles GET /api/perfumes/{id}. Each successful fetch counts
// one view; the body is the row as read before that view was counted.
// Unknown ids have no side effect.
func (h *Handler) GetPerfume(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch perfume"

	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}

	perfume, err := h.store.GetPerfumeByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	if perfume == nil {
		h.respondError(w, r, apperr.NewNotFoundError(msgPerfumeNotFound), failed)
		return
	}

	found, err := h.store.IncrementPerfumeViews(r.Context(), id)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	if !found {
		h.respondError(w, r, apperr.NewNotFoundError(msgPerfumeNotFound), failed)
		return
	}
	metrics.PerfumeViews.Inc()

	respondJSON(w, http.StatusOK, perfume)
}

// SimilarPerfumes handles GET /api/perfumes/{id}/similar.
func (h *Handler) SimilarPerfumes(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch similar perfumes"

	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}

	target, err := h.store.GetPerfumeByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	if target == nil {
		h.respondError(w, r, apperr.NewNotFoundError(msgPerfumeNotFound), failed)
		return
	}

	all, err := h.store.GetAllPerfumes(r.Context())
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, recommend.Similar(*target, all))
}
