package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/edgard/weatherscent/internal/ai"
	"github.com/edgard/weatherscent/internal/apperr"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func statusFor(code string) int {
	switch code {
	case apperr.CodeValidation, apperr.CodeDuplicate:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable
	case apperr.CodeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"message": ...}. Uncoded errors get fallback
// as their message; 5xx causes are logged, never sent.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(apperr.Code(err))
	message := apperr.Message(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), fallback,
			"request_id", middleware.GetReqID(r.Context()),
			"status", status,
			"error", err)
	}
	respondJSON(w, status, messageResponse{Message: message})
}

// aiError classifies an Advisor failure.
func aiError(err error, message string) error {
	if errors.Is(err, ai.ErrUnavailable) {
		return apperr.NewUnavailableError(ai.ErrUnavailable.Error(), err)
	}
	return apperr.NewExternalError(message, err)
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.NewValidationError("Failed to read request body", err)
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.NewValidationError("Invalid JSON body", err)
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewValidationError(fmt.Sprintf("Invalid %s", name), err)
	}
	return id, nil
}
