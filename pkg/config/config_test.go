package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "@every 15m", cfg.Cleanup.Schedule)
	assert.Equal(t, time.Hour, cfg.Cleanup.EventExpiry)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSize)
	assert.Contains(t, cfg.Uploads.AllowedMIMEs, "image/png")
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("CLEANUP_EVENT_EXPIRY", "90m")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://clubs.example.edu ,")
	t.Setenv("GOOGLE_CLIENT_ID", "client-123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 90*time.Minute, cfg.Cleanup.EventExpiry)
	assert.Equal(t, []string{"http://localhost:5173", "https://clubs.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "client-123", cfg.Google.ClientID)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("not-a-duration", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
