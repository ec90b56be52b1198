package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.True(t, cfg.CronEnabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://cdn.colib.app/")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.CronEnabled)
	assert.Equal(t, "https://cdn.colib.app", cfg.PublicBaseURL)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, LoadConfig().HTTPTimeout)
}
