package api

import (
	"errors"
	"net/http"

	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/model"
)

type wishlistCheckResponse struct {
	IsWishlisted bool `json:"isWishlisted"`
}

// AddToWishlist handles POST /api/wishlist.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to add to wishlist"

	var req model.WishlistItem
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, r, apperr.NewValidationError("User ID and perfume ID are required", err), failed)
		return
	}

	item, err := h.store.AddToWishlist(r.Context(), req.UserID, req.PerfumeID)
	switch {
	case errors.Is(err, database.ErrAlreadyInWishlist):
		h.respondError(w, r, apperr.NewDuplicateError("Item already in wishlist", err), failed)
		return
	case err != nil:
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// RemoveFromWishlist handles DELETE /api/wishlist/{userId}/{perfumeId}.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to remove from wishlist"

	userID, perfumeID, err := wishlistPair(r)
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	removed, err := h.store.RemoveFromWishlist(r.Context(), userID, perfumeID)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	if !removed {
		h.respondError(w, r, apperr.NewNotFoundError("Wishlist item not found"), failed)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Removed from wishlist"})
}

// GetWishlist handles GET /api/wishlist/{userId}.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch wishlist"

	userID, err := pathID(r, "userId")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	items, err := h.store.GetWishlistWithPerfumes(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CheckWishlist handles GET /api/wishlist/{userId}/{perfumeId}/check.
func (h *Handler) CheckWishlist(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to check wishlist"

	userID, perfumeID, err := wishlistPair(r)
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	ok, err := h.store.IsInWishlist(r.Context(), userID, perfumeID)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, wishlistCheckResponse{IsWishlisted: ok})
}

func wishlistPair(r *http.Request) (int64, int64, error) {
	userID, err := pathID(r, "userId")
	if err != nil {
		return 0, 0, err
	}
	perfumeID, err := pathID(r, "perfumeId")
	if err != nil {
		return 0, 0, err
	}
	return userID, perfumeID, nil
}
