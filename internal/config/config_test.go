package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VECTOR_TOP_K", "")
	t.Setenv("CHAT_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 3, cfg.Vector.TopK)
	assert.Equal(t, 5, cfg.Chat.HistoryWindow)
	assert.Equal(t, 50, cfg.Chat.HistoryPage)
	assert.Equal(t, 60*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.MaxAge)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VECTOR_TOP_K", "7")
	t.Setenv("CHAT_TIMEOUT", "90")
	t.Setenv("RECONCILE_INTERVAL", "5m")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 7, cfg.Vector.TopK)
	assert.Equal(t, 90*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
	assert.True(t, cfg.Otel.Enabled)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
}
