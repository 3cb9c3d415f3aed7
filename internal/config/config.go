// Package config provides centralized configuration management for the
// moodcast service. It loads configuration from environment variables with
// sensible defaults, supporting different deployment environments
// (development, staging, production).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the moodcast service.
type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	OpenWeather   OpenWeatherConfig
	StockData     StockDataConfig
	Selection     SelectionConfig
	RateLimit     RateLimitConfig
}

// ServerConfig contains HTTP server settings and timeouts.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig contains settings for the Redis-backed rate limiter. Redis is
// not used for response caching; the memo caches are in-process.
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Database              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// ObservabilityConfig contains settings for distributed tracing and metrics.
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// OpenWeatherConfig contains upstream weather API settings, including the
// per-shape cache TTLs.
type OpenWeatherConfig struct {
	BaseURL        string
	APIKey         string
	HTTPTimeout    time.Duration
	ObservationTTL time.Duration
	ForecastTTL    time.Duration
}

// StockDataConfig contains upstream market data API settings.
type StockDataConfig struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
	QuoteTTL    time.Duration
}

// SelectionConfig contains the per-user daily limits for user-generated
// records.
type SelectionConfig struct {
	DailyEmotionLimit int
	DailyAlertLimit   int
}

// RateLimitConfig contains API rate limiting settings.
type RateLimitConfig struct {
	RPS    int
	Window time.Duration
}

// Load reads configuration from environment variables and returns a Config
// instance.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			Host:                  getEnv("DB_HOST", "localhost"),
			Port:                  getEnvAsInt("DB_PORT", 5432),
			User:                  getEnv("DB_USER", "moodcast"),
			Password:              getEnv("DB_PASSWORD", ""),
			Database:              getEnv("DB_NAME", "moodcast"),
			SSLMode:               getEnv("DB_SSLMODE", "disable"),
			MaxConnections:        25,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			ServiceName:    "moodcast",
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     0.1,
		},
		OpenWeather: OpenWeatherConfig{
			BaseURL:        getEnv("OPEN_WEATHER_BASE_URL", "https://api.openweathermap.org"),
			APIKey:         getEnv("OPEN_WEATHER_API_KEY", ""),
			HTTPTimeout:    30 * time.Second,
			ObservationTTL: time.Duration(getEnvAsInt("OBSERVATION_CACHE_SECONDS", 600)) * time.Second,
			ForecastTTL:    time.Duration(getEnvAsInt("FORECAST_CACHE_SECONDS", 3600)) * time.Second,
		},
		StockData: StockDataConfig{
			BaseURL:     getEnv("STOCK_DATA_BASE_URL", "https://cloud.iexapis.com"),
			APIKey:      getEnv("STOCK_DATA_API_KEY", ""),
			HTTPTimeout: 30 * time.Second,
			QuoteTTL:    time.Duration(getEnvAsInt("QUOTE_CACHE_SECONDS", 60)) * time.Second,
		},
		Selection: SelectionConfig{
			DailyEmotionLimit: getEnvAsInt("DAILY_EMOTION_LIMIT", 5),
			DailyAlertLimit:   getEnvAsInt("DAILY_ALERT_LIMIT", 10),
		},
		RateLimit: RateLimitConfig{
			RPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			Window: time.Minute,
		},
	}
}

// getEnv retrieves an environment variable value with a fallback default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a
// fallback default.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean with a
// fallback default.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}
