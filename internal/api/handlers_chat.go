package api

import (
	"net/http"
	"strings"

	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/model"
)

type chatRequest struct {
	Message string `json:"message"`
	UserID  *int64 `json:"userId"`
	Context any    `json:"context"`
}

// Chat handles POST /api/chat. With a userId the exchange is stored as a
// single row holding both the message and the reply.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to get chat response"

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.respondError(w, r, apperr.NewValidationError("Message is required", nil), failed)
		return
	}

	reply, err := h.advisor.ChatReply(r.Context(), req.Message, req.Context)
	if err != nil {
		h.respondError(w, r, aiError(err, failed), failed)
		return
	}

	if req.UserID != nil && *req.UserID > 0 {
		response := reply.Message
		if _, err := h.store.SaveChatMessage(r.Context(), &model.ChatMessage{
			UserID:   *req.UserID,
			Message:  req.Message,
			Response: &response,
			IsUser:   true,
		}); err != nil {
			h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
			return
		}
	}

	respondJSON(w, http.StatusOK, reply)
}

// ChatHistory handles GET /api/chat/{userId}/history.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	const failed = "Failed to fetch chat history"

	userID, err := pathID(r, "userId")
	if err != nil {
		h.respondError(w, r, err, failed)
		return
	}
	history, err := h.store.GetChatHistory(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, apperr.NewDatabaseError(failed, err), failed)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
