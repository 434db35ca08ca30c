package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tbraack/critique/internal/config"
)

func strPtr(s string) *string { return &s }

func TestParseTimeout_FallbackChain(t *testing.T) {
	// Provider override wins
	got := ParseTimeout(strPtr("10s"), "30s", time.Minute)
	assert.Equal(t, 10*time.Second, got)

	// Global config when no override
	got = ParseTimeout(nil, "30s", time.Minute)
	assert.Equal(t, 30*time.Second, got)

	// Default when nothing configured
	got = ParseTimeout(nil, "", time.Minute)
	assert.Equal(t, time.Minute, got)

	// Invalid override falls through
	got = ParseTimeout(strPtr("bogus"), "30s", time.Minute)
	assert.Equal(t, 30*time.Second, got)

	// Negative rejected
	got = ParseTimeout(strPtr("-5s"), "", time.Minute)
	assert.Equal(t, time.Minute, got)
}

func TestBuildRetryConfig(t *testing.T) {
	httpCfg := config.HTTPConfig{
		MaxRetries:        4,
		InitialBackoff:    "1s",
		MaxBackoff:        "8s",
		BackoffMultiplier: 3.0,
	}

	got := BuildRetryConfig(config.ProviderConfig{}, httpCfg)
	assert.Equal(t, 4, got.MaxRetries)
	assert.Equal(t, time.Second, got.InitialBackoff)
	assert.Equal(t, 8*time.Second, got.MaxBackoff)
	assert.Equal(t, 3.0, got.Multiplier)

	// Provider overrides win
	maxRetries := 1
	provider := config.ProviderConfig{
		MaxRetries:     &maxRetries,
		InitialBackoff: strPtr("500ms"),
	}
	got = BuildRetryConfig(provider, httpCfg)
	assert.Equal(t, 1, got.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, got.InitialBackoff)

	// Zero multiplier falls back to a sane value
	got = BuildRetryConfig(config.ProviderConfig{}, config.HTTPConfig{})
	assert.Equal(t, 2.0, got.Multiplier)
}
