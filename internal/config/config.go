package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	Environment  string
	LogLevel     string
	JWTSecret    string

	AllowedOrigins []string
	AdminEmails    []string

	CodeRotationInterval  time.Duration
	CodeRotationAutostart bool
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	interval, err := time.ParseDuration(getEnv("CODE_ROTATION_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CODE_ROTATION_INTERVAL: %w", err)
	}
	if interval < time.Second {
		return nil, fmt.Errorf("CODE_ROTATION_INTERVAL must be at least 1s, got %s", interval)
	}
	if interval%time.Second != 0 {
		return nil, fmt.Errorf("CODE_ROTATION_INTERVAL must be a whole number of seconds, got %s", interval)
	}

	autostart, err := strconv.ParseBool(getEnv("CODE_ROTATION_AUTOSTART", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CODE_ROTATION_AUTOSTART: %w", err)
	}

	cfg := &Config{
		ServerPort:            port,
		DatabasePath:          getEnv("DATABASE_PATH", "./timeshare.db"),
		Environment:           getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		AllowedOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AdminEmails:           splitList(getEnv("ADMIN_EMAILS", "")),
		CodeRotationInterval:  interval,
		CodeRotationAutostart: autostart,
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
