// Package config validates the relay's environment configuration,
// keeping every required variable and its default in one place.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration.
type Config struct {
	// Required variables
	JWTSecret string
	Port      string

	// Optional variables with defaults
	GoEnv    string
	LogLevel string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	WhitelistEnabled bool
	AddonSetPath     string
	CommandPrefix    string

	DevelopmentMode bool
	AllowedOrigins  string

	// Rate limits (ulule/limiter format, e.g. "10-M")
	RateLimitLoginPerIP     string
	RateLimitUpdatePerPlayer string

	// OpenTelemetry
	OtelCollectorAddr string

	// AdminAPIKey authorizes requests to internal/v1/adminapi's
	// ban/kick/list/announce/whitelist HTTP surface.
	AdminAPIKey string
	// AdminPort serves the admin/health/metrics HTTP surface,
	// separate from the websocket port.
	AdminPort string
}

// ValidateEnv validates all required environment variables and returns
// a Config object. Returns an error if any required variable is
// missing or invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWTSecret) < 32 {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least 32 characters (got %d)", len(cfg.JWTSecret)))
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		errs = append(errs, "PORT is required")
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisEnabled {
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
			slog.Warn("REDIS_ADDR not set, using default", "addr", cfg.RedisAddr)
		} else if !isValidHostPort(cfg.RedisAddr) {
			errs = append(errs, fmt.Sprintf("REDIS_ADDR must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
	}

	cfg.WhitelistEnabled = os.Getenv("WHITELIST_ENABLED") == "true"
	cfg.AddonSetPath = getEnvOrDefault("ADDON_SET_PATH", "")
	cfg.CommandPrefix = getEnvOrDefault("CHAT_COMMAND_PREFIX", "/")

	cfg.GoEnv = getEnvOrDefault("GO_ENV", "production")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.DevelopmentMode = os.Getenv("DEVELOPMENT_MODE") == "true"
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")

	cfg.RateLimitLoginPerIP = getEnvOrDefault("RATE_LIMIT_LOGIN_IP", "20-M")
	cfg.RateLimitUpdatePerPlayer = getEnvOrDefault("RATE_LIMIT_UPDATE_PLAYER", "600-M")

	cfg.OtelCollectorAddr = os.Getenv("OTEL_COLLECTOR_ADDR")

	cfg.AdminAPIKey = os.Getenv("ADMIN_API_KEY")
	if cfg.AdminAPIKey == "" {
		errs = append(errs, "ADMIN_API_KEY is required")
	}
	cfg.AdminPort = getEnvOrDefault("ADMIN_PORT", "9090")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidatedConfig(cfg)
	return cfg, nil
}

func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}
	return parts[0] != ""
}

func logValidatedConfig(cfg *Config) {
	slog.Info("environment configuration validated")
	slog.Info("configuration",
		"jwt_secret", redactSecret(cfg.JWTSecret),
		"port", cfg.Port,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"whitelist_enabled", cfg.WhitelistEnabled,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"rate_limit_login_ip", cfg.RateLimitLoginPerIP,
		"rate_limit_update_player", cfg.RateLimitUpdatePerPlayer,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// redactSecret shows only the first 8 characters of a secret.
func redactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:8] + "***"
}
