package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/metrics"
)

// NewRouter builds the chi router with middleware and every route.
func NewRouter(h *Handler, mw MiddlewareConfig, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RateLimit())

		r.Post("/weather", h.PostWeather)
		r.Get("/weather", h.GetWeather)

		r.Get("/perfumes", h.ListPerfumes)
		r.Get("/perfumes/{id}", h.GetPerfume)
		r.Get("/perfumes/{id}/similar", h.SimilarPerfumes)

		r.Post("/recommendations", h.CombinedRecommendation)
		r.Post("/recommendations/weather", h.WeatherRecommendations)
		r.Get("/recommendations/shared/{id}", h.SharedRecommendation)
		r.Get("/recommendations/{userId}", h.UserRecommendations)

		r.Post("/preferences/analyze", h.AnalyzePreferences)
		r.Get("/preferences/{userId}", h.GetPreferences)

		r.Post("/wishlist", h.AddToWishlist)
		r.Get("/wishlist/{userId}", h.GetWishlist)
		r.Delete("/wishlist/{userId}/{perfumeId}", h.RemoveFromWishlist)
		r.Get("/wishlist/{userId}/{perfumeId}/check", h.CheckWishlist)

		r.Post("/chat", h.Chat)
		r.Get("/chat/{userId}/history", h.ChatHistory)

		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
	})

	return r
}
