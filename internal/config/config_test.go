package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":             "postgres://localhost/tiket",
		"REDIS_URL":                "redis://localhost:6379/0",
		"PRICING_DEFAULT_CURRENCY": "",
		"EVENT_CACHE_TTL":          "",
		"PRICING_ACTIVE_FEES_ONLY": "",
		"BREAKER_FAILURE_RATIO":    "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "USD", cfg.PricingDefaultCurrency)
	require.True(t, cfg.PricingActiveFeesOnly)
	require.Equal(t, time.Minute, cfg.EventCacheTTL)
	require.Equal(t, 0.5, cfg.BreakerFailureRatio)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PRICING_DEFAULT_CURRENCY"] = "eur"
	env["EVENT_CACHE_TTL"] = "5m"
	env["PRICING_ACTIVE_FEES_ONLY"] = "off"
	env["BREAKER_FAILURE_RATIO"] = "0.25"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "EUR", cfg.PricingDefaultCurrency)
	require.Equal(t, 5*time.Minute, cfg.EventCacheTTL)
	require.False(t, cfg.PricingActiveFeesOnly)
	require.Equal(t, 0.25, cfg.BreakerFailureRatio)
}

func TestLoadRequiresDatabase(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := LoadForTests(env)
	require.Error(t, err)
}

func TestLoadRejectsBadCurrency(t *testing.T) {
	env := baseEnv()
	env["PRICING_DEFAULT_CURRENCY"] = "dollars"
	_, err := LoadForTests(env)
	require.Error(t, err)
}

func TestHTTPAddr(t *testing.T) {
	require.Equal(t, ":9000", (&Config{Port: "9000"}).HTTPAddr())
	require.Equal(t, ":8081", (&Config{Port: ":8081"}).HTTPAddr())
	require.Equal(t, ":8080", (&Config{}).HTTPAddr())
}
