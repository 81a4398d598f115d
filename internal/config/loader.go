package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "WEATHERSCENT"

// Load loads and validates configuration from:
// 1. Default values
// 2. the config file at path (optional, YAML)
// 3. WEATHERSCENT_* environment variables
// 4. conventional variables such as DATABASE_URL and OPENAI_API_KEY
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindConventionalEnv(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing explicit path surfaces as a *fs.PathError.
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if port := os.Getenv("PORT"); port != "" && !v.InConfig("server.addr") && os.Getenv(envPrefix+"_SERVER_ADDR") == "" {
		cfg.Server.Addr = ":" + port
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = providerKey(cfg.AI.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", DefaultServerRateLimit)
	v.SetDefault("server.rate_window", DefaultServerRateWindow)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)
	v.SetDefault("database.query_timeout", DefaultDBQueryTimeout)

	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.base_url", DefaultWeatherBaseURL)
	v.SetDefault("weather.timeout", DefaultWeatherTimeout)

	v.SetDefault("ai.provider", DefaultAIProvider)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.timeout", DefaultAITimeout)

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", DefaultCacheTTL)

	v.SetDefault("scheduler.tasks", DefaultTasks)
}

// bindConventionalEnv maps the unprefixed variables used by hosting
// platforms onto their config keys. Prefixed variables still win.
func bindConventionalEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"database.url":    {envPrefix + "_DATABASE_URL", "DATABASE_URL"},
		"weather.api_key": {envPrefix + "_WEATHER_API_KEY", "OPENWEATHER_API_KEY"},
		"cache.redis_url": {envPrefix + "_CACHE_REDIS_URL", "REDIS_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func providerKey(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
