package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_PATH", "LISTEN_ADDR", "LOG_LEVEL", "ENV",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "ordersense.sqlite", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.AnthropicModel)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())

	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "ANTHROPIC_API_KEY")
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/data/orders.sqlite")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/data/orders.sqlite", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5.5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnvProductionRequiresAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestLoadFromEnvProductionRejectsCORSWildcard(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "debug"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "WARN"}).SlogLevel())
	assert.Equal(t, slog.LevelError, (&Config{LogLevel: "error"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "anything"}).SlogLevel())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":7070") // env wins over the file

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nDB_PATH=\"/tmp/from-file.sqlite\"\nLISTEN_ADDR=:9999\nLOG_LEVEL='warn'\nbroken line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "/tmp/from-file.sqlite", os.Getenv("DB_PATH"))
	assert.Equal(t, ":7070", os.Getenv("LISTEN_ADDR"))
	assert.Equal(t, "warn", os.Getenv("LOG_LEVEL"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
