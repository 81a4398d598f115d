package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultServerAddr            = ":5000"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 2 * time.Minute // LLM calls can be slow
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerRateLimit       = 120
	DefaultServerRateWindow      = time.Minute

	DefaultDBMaxOpenConns    = 10
	DefaultDBMaxIdleConns    = 5
	DefaultDBConnMaxLifetime = time.Hour
	DefaultDBQueryTimeout    = 15 * time.Second

	DefaultWeatherBaseURL = "https://api.openweathermap.org"
	DefaultWeatherTimeout = 10 * time.Second

	DefaultAIProvider    = "openai"
	DefaultAIModel       = "gpt-4o"
	DefaultAITemperature = 0.7
	DefaultAITimeout     = time.Minute

	DefaultCacheTTL = 7 * 24 * time.Hour
)

// DefaultTasks are the scheduled tasks enabled when config.yaml does not
// override them.
var DefaultTasks = map[string]any{
	"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 0 4 * * *"},
	"cache_prune":     map[string]any{"enabled": true, "schedule": "0 */15 * * * *"},
}
