package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/payroll")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 24*time.Hour, cfg.StatementCacheTTL)
	assert.Equal(t, int64(1048576), cfg.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.True(t, cfg.RunMigrations)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/payroll")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("STATEMENT_CACHE_TTL", "90m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 90*time.Minute, cfg.StatementCacheTTL)
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:        "postgres://localhost/payroll",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 10,
		LogFormat:          "json",
	}
	require.NoError(t, base.Validate())

	missingDB := base
	missingDB.DatabaseURL = ""
	assert.Error(t, missingDB.Validate())

	weakProd := base
	weakProd.Environment = "production"
	weakProd.JWTSecret = "short"
	assert.Error(t, weakProd.Validate())

	tinyBody := base
	tinyBody.MaxBodyBytes = 10
	assert.Error(t, tinyBody.Validate())

	badFormat := base
	badFormat.LogFormat = "xml"
	assert.Error(t, badFormat.Validate())
}
