package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration, loaded from the environment.
type Config struct {
	Port string

	// ProxyTimeout bounds each pass-through HTTP call. Zero disables the
	// client-side timeout and leaves cancellation to the request context.
	ProxyTimeout time.Duration

	// UpstreamRPS paces the sequential availability calls within a run.
	UpstreamRPS float64

	// CacheTTL controls how long finished run results are served from cache.
	CacheTTL time.Duration

	// RateLimitPerMin is the per-IP API request allowance.
	RateLimitPerMin int
}

// Load reads configuration from the environment. A .env file is honored when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ProxyTimeout:    getDuration("PROXY_TIMEOUT", 0),
		UpstreamRPS:     getFloat("UPSTREAM_RPS", 2),
		CacheTTL:        getDuration("CACHE_TTL", 30*time.Second),
		RateLimitPerMin: getInt("RATE_LIMIT_PER_MIN", 10),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
