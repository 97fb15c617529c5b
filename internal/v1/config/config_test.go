package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"JWT_SECRET", "PORT", "REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD",
		"WHITELIST_ENABLED", "ADDON_SET_PATH", "CHAT_COMMAND_PREFIX",
		"GO_ENV", "LOG_LEVEL", "DEVELOPMENT_MODE", "ALLOWED_ORIGINS",
		"RATE_LIMIT_LOGIN_IP", "RATE_LIMIT_UPDATE_PLAYER", "OTEL_COLLECTOR_ADDR",
		"ADMIN_API_KEY", "ADMIN_PORT",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func validRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "a-secret-at-least-32-characters-long")
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_API_KEY", "admin-secret")
}

func TestValidateEnvRejectsMissingJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_API_KEY", "admin-secret")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestValidateEnvRejectsShortJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_API_KEY", "admin-secret")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestValidateEnvRejectsMissingPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "a-secret-at-least-32-characters-long")
	t.Setenv("ADMIN_API_KEY", "admin-secret")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT is required")
}

func TestValidateEnvRejectsOutOfRangePort(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "a-secret-at-least-32-characters-long")
	t.Setenv("PORT", "99999")
	t.Setenv("ADMIN_API_KEY", "admin-secret")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT must be a valid port number")
}

func TestValidateEnvRejectsMissingAdminAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "a-secret-at-least-32-characters-long")
	t.Setenv("PORT", "8080")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_API_KEY is required")
}

func TestValidateEnvAppliesDefaults(t *testing.T) {
	clearEnv(t)
	validRequiredEnv(t)

	cfg, err := ValidateEnv()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.GoEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/", cfg.CommandPrefix)
	assert.Equal(t, "", cfg.AddonSetPath)
	assert.Equal(t, "20-M", cfg.RateLimitLoginPerIP)
	assert.Equal(t, "600-M", cfg.RateLimitUpdatePerPlayer)
	assert.Equal(t, "9090", cfg.AdminPort)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.WhitelistEnabled)
	assert.False(t, cfg.DevelopmentMode)
}

func TestValidateEnvHonorsOverrides(t *testing.T) {
	clearEnv(t)
	validRequiredEnv(t)
	t.Setenv("ADMIN_PORT", "9091")
	t.Setenv("CHAT_COMMAND_PREFIX", "!")
	t.Setenv("DEVELOPMENT_MODE", "true")
	t.Setenv("WHITELIST_ENABLED", "true")

	cfg, err := ValidateEnv()
	require.NoError(t, err)

	assert.Equal(t, "9091", cfg.AdminPort)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.True(t, cfg.DevelopmentMode)
	assert.True(t, cfg.WhitelistEnabled)
}

func TestValidateEnvRedisRequiresValidHostPort(t *testing.T) {
	clearEnv(t)
	validRequiredEnv(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "not-a-host-port")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR must be in format")
}

func TestValidateEnvRedisDefaultsAddrWhenEnabledButUnset(t *testing.T) {
	clearEnv(t)
	validRequiredEnv(t)
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestValidateEnvRedisAcceptsValidHostPort(t *testing.T) {
	clearEnv(t)
	validRequiredEnv(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_PASSWORD", "hunter2")

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, "hunter2", cfg.RedisPassword)
}

func TestValidateEnvAccumulatesMultipleErrors(t *testing.T) {
	clearEnv(t)

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "PORT is required")
	assert.Contains(t, err.Error(), "ADMIN_API_KEY is required")
}
