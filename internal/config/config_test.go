package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.Equal(t, 48*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 800*time.Millisecond, cfg.SendStaggerDelay)
	assert.Equal(t, "91", cfg.DefaultCountryCode)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", " Redis ")
	t.Setenv("REMINDER_WINDOW", "24h")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CLINICDESK_DATA_DIR", "/tmp/clinicdesk-test")

	cfg := Load()

	assert.Equal(t, "redis", cfg.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.ReminderWindow)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, "/tmp/clinicdesk-test", cfg.DataDir)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("SEND_STAGGER_DELAY", "not-a-duration")
	cfg := Load()
	assert.Equal(t, 800*time.Millisecond, cfg.SendStaggerDelay)
}
