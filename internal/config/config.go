// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                    string  `mapstructure:"PORT"`
	Env                     string  `mapstructure:"APP_ENV"`
	LogLevel                string  `mapstructure:"LOG_LEVEL"`
	RedisURL                string  `mapstructure:"REDIS_URL"`
	AllowedOrigins          string  `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags            string  `mapstructure:"FEATURE_FLAGS"`
	SimulatedLatencyMS      int     `mapstructure:"SIMULATED_LATENCY_MS"`
	SearchDebounceMS        int     `mapstructure:"SEARCH_DEBOUNCE_MS"`
	NotificationReadDelayMS int     `mapstructure:"NOTIFICATION_READ_DELAY_MS"`
	ViewCacheTTLSeconds     int     `mapstructure:"VIEW_CACHE_TTL_SECONDS"`
	RateLimitPerMinute      int     `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	Seed                    int64   `mapstructure:"SEED"`
	TracingEnabled          bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter         string  `mapstructure:"TRACING_EXPORTER"`
	TracingSamplerRatio     float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
	OTLPEndpoint            string  `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "production" || env == "prod" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "load_more=on,realtime_push=on,view_cache=on")
	viper.SetDefault("SIMULATED_LATENCY_MS", 500)
	viper.SetDefault("SEARCH_DEBOUNCE_MS", 300)
	viper.SetDefault("NOTIFICATION_READ_DELAY_MS", 1000)
	viper.SetDefault("VIEW_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("SEED", 42)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Env = strings.ToLower(strings.TrimSpace(config.Env))
	config.TracingExporter = strings.ToLower(strings.TrimSpace(config.TracingExporter))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and in range.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SimulatedLatencyMS < 0 {
		return errors.New("SIMULATED_LATENCY_MS must not be negative")
	}
	if c.SearchDebounceMS <= 0 {
		return errors.New("SEARCH_DEBOUNCE_MS must be positive")
	}
	if c.NotificationReadDelayMS < 0 {
		return errors.New("NOTIFICATION_READ_DELAY_MS must not be negative")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TracingEnabled {
		switch c.TracingExporter {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("TRACING_EXPORTER must be stdout or otlp, got %q", c.TracingExporter)
		}
		if c.TracingSamplerRatio <= 0 || c.TracingSamplerRatio > 1 {
			return errors.New("TRACING_SAMPLER_RATIO must be in (0, 1]")
		}
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction && c.AllowedOrigins == "*" {
		log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
	}

	return nil
}

// SimulatedLatency is the artificial delay before an action's effect becomes visible.
func (c *Config) SimulatedLatency() time.Duration {
	return time.Duration(c.SimulatedLatencyMS) * time.Millisecond
}

// SearchDebounce is the window in which only the last search query runs.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// NotificationReadDelay is how long the unread marker lingers after the panel opens.
func (c *Config) NotificationReadDelay() time.Duration {
	return time.Duration(c.NotificationReadDelayMS) * time.Millisecond
}

// ViewCacheTTL is how long a projected view stays in Redis.
func (c *Config) ViewCacheTTL() time.Duration {
	return time.Duration(c.ViewCacheTTLSeconds) * time.Second
}
