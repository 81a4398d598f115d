// Package api exposes the WeatherScent REST API.
package api

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/edgard/weatherscent/internal/ai"
	"github.com/edgard/weatherscent/internal/cache"
	"github.com/edgard/weatherscent/internal/database"
	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/model"
)

// WeatherProvider resolves coordinates to a reading. Implementations never
// fail; they serve a fallback reading instead.
type WeatherProvider interface {
	Fetch(ctx context.Context, lat, lon float64) model.WeatherReading
}

// Handler serves every API route. All dependencies are constructed once
// at startup and shared by concurrent requests.
type Handler struct {
	store    database.Store
	weather  WeatherProvider
	advisor  *ai.Advisor
	results  cache.ResultStore[model.CombinedResult]
	validate *validator.Validate
	logger   *slog.Logger
	newID    func() string
}

// NewHandler wires the API handlers.
func NewHandler(
	store database.Store,
	weather WeatherProvider,
	advisor *ai.Advisor,
	results cache.ResultStore[model.CombinedResult],
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		store:    store,
		weather:  weather,
		advisor:  advisor,
		results:  results,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.With("component", "api"),
		newID:    uuid.NewString,
	}
}
