package api

import (
	"net/http"
	"strconv"

	"github.com/edgard/weatherscent/internal/apperr"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/weather"
)

const msgCoordinatesRequired = "Latitude and longitude are required"

type weatherRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

type weatherResponse struct {
	model.WeatherReading
	MoodText string `json:"moodText"`
}

// PostWeather handles POST /api/weather.
func (h *Handler) PostWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, msgCoordinatesRequired)
		return
	}
	h.serveWeather(w, r, req)
}

// GetWeather handles GET /api/weather?lat=..&lon=..
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	q := r.URL.Query()
	if v, err := strconv.ParseFloat(q.Get("lat"), 64); err == nil {
		req.Lat = &v
	}
	if v, err := strconv.ParseFloat(q.Get("lon"), 64); err == nil {
		req.Lon = &v
	}
	h.serveWeather(w, r, req)
}

func (h *Handler) serveWeather(w http.ResponseWriter, r *http.Request, req weatherRequest) {
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, r, apperr.NewValidationError(msgCoordinatesRequired, err), msgCoordinatesRequired)
		return
	}

	reading := h.weather.Fetch(r.Context(), *req.Lat, *req.Lon)
	respondJSON(w, http.StatusOK, weatherResponse{
		WeatherReading: reading,
		MoodText:       weather.DeriveMood(reading),
	})
}
