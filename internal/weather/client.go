// Package weather turns coordinates into a normalized weather reading using
// the OpenWeatherMap current-weather API.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/edgard/weatherscent/internal/config"
	"github.com/edgard/weatherscent/internal/logger"
	"github.com/edgard/weatherscent/internal/metrics"
	"github.com/edgard/weatherscent/internal/model"
	"github.com/edgard/weatherscent/internal/resilience"
)

const (
	serviceName     = "weather"
	defaultLocation = "현재 위치"
)

var errNoAPIKey = errors.New("weather API key not configured")

// FallbackReading is served whenever live weather is unavailable.
func FallbackReading() model.WeatherReading {
	return model.WeatherReading{
		Temperature: 20,
		Condition:   "Clear",
		Humidity:    50,
		WindSpeed:   2.5,
		Location:    "서울",
		Description: "맑음",
	}
}

// APIError is a non-2xx answer from the weather API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weather API error with status %d: %s", e.StatusCode, e.Message)
}

// currentWeather is the subset of the OpenWeatherMap response we read.
type currentWeather struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Client fetches current weather. It never fails: every error path yields
// FallbackReading.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker[model.WeatherReading]
	logger     *slog.Logger
}

// NewClient creates a weather client from configuration.
func NewClient(cfg config.WeatherConfig, log *slog.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "weather")
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewCircuitBreaker[model.WeatherReading](resilience.CircuitBreakerConfig{
			Name:          serviceName,
			MaxFailures:   5,
			Timeout:       cfg.Timeout,
			ResetInterval: 30 * time.Second,
			Logger:        log,
		}),
		logger: log,
	}
}

// Fetch returns the current weather at lat/lon, or FallbackReading when the
// API key is missing or the call fails.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) model.WeatherReading {
	if c.apiKey == "" {
		c.logger.DebugContext(ctx, "No weather API key, serving fallback reading")
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFallback, 0)
		return FallbackReading()
	}

	start := time.Now()
	reading, err := c.breaker.Execute(ctx, func(ctx context.Context) (model.WeatherReading, error) {
		return c.fetch(ctx, lat, lon)
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		c.logger.WarnContext(ctx, "Weather circuit open, serving fallback reading")
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeRejected, 0)
		return FallbackReading()
	case err != nil:
		c.logger.ErrorContext(ctx, "Weather API call failed, serving fallback reading", "error", err)
		metrics.ObserveExternalCall(serviceName, metrics.OutcomeFailure, time.Since(start))
		return FallbackReading()
	}

	metrics.ObserveExternalCall(serviceName, metrics.OutcomeSuccess, time.Since(start))
	return reading
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (model.WeatherReading, error) {
	if c.apiKey == "" {
		return model.WeatherReading{}, errNoAPIKey
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "kr")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return model.WeatherReading{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.WeatherReading{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return model.WeatherReading{}, apiErr
	}

	var data currentWeather
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return model.WeatherReading{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(data.Weather) == 0 {
		return model.WeatherReading{}, errors.New("weather response has no conditions")
	}

	location := data.Name
	if location == "" {
		location = defaultLocation
	}
	return model.WeatherReading{
		Temperature: int(math.Round(data.Main.Temp)),
		Condition:   data.Weather[0].Main,
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
		Location:    location,
		Description: data.Weather[0].Description,
	}, nil
}
