package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/availgrid/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.ProxyTimeout)
	assert.Equal(t, 2.0, cfg.UpstreamRPS)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.RateLimitPerMin)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROXY_TIMEOUT", "45s")
	t.Setenv("UPSTREAM_RPS", "0.5")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.ProxyTimeout)
	assert.Equal(t, 0.5, cfg.UpstreamRPS)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimitPerMin)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}
