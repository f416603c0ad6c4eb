package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "JWT_SECRET", "JWT_REFRESH_SECRET", "JWT_ACCESS_TTL",
		"RATE_LIMIT_PER_MINUTE", "CATEGORY_UPDATE_POLICY", "ALLOWED_ORIGINS",
		"ADMIN_EMAILS", "S3_BUCKET", "REDIS_ADDR", "MONGO_DATABASE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "blog", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, "strict", cfg.CategoryUpdatePolicy)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.JWTRefreshSecret)
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ADMIN_EMAILS", "Root@Example.com")
	t.Setenv("CATEGORY_UPDATE_POLICY", "lenient")
	t.Setenv("S3_BUCKET", "images")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "lenient", cfg.CategoryUpdatePolicy)
	assert.True(t, cfg.IsAdminEmail("root@example.com"))
	assert.False(t, cfg.IsAdminEmail("someone@example.com"))
	assert.True(t, cfg.S3Enabled())
	assert.True(t, cfg.RedisEnabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("JWT_ACCESS_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "JWT_ACCESS_TTL")
}

func TestLoad_InvalidPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("CATEGORY_UPDATE_POLICY", "whatever")

	_, err := Load()
	assert.ErrorContains(t, err, "CATEGORY_UPDATE_POLICY")
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", EnvProduction)

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "a", cfg.JWTSecret)
}
