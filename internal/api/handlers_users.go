package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/model"
)

type createUserRequest struct {
	Username    string                 `json:"username"    validate:"required,max=64"`
	Email       string                 `json:"email"       validate:"required,email"`
	Preferences *model.UserPreferences `json:"preferences"`
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to create user"

	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, r, apperr.NewValidationError("Invalid user data", err), failed)
		return
	}

	user, err := h.store.CreateUser(r.Context(), &model.User{
		Username:    req.Username,
		Email:       req.Email,
		Preferences: req.Preferences,
	})
	switch {
	case errors.Is(err, database.ErrDuplicateUser):
		h.respondError(w, r, apperr.NewDuplicateError("Username or email already exists", err), failed)
		return
	case err != nil:
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch user"

	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	if user == nil {
		h.respondError(w, r, apperr.NewNotFoundError("User not found"), failed)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
