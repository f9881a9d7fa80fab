package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional
// YAML file (CONFIG_FILE) overridden by environment variables.
type Config struct {
	DatabaseURL     string        `yaml:"database_url"`
	ServerPort      string        `yaml:"server_port"`
	FrontendURL     string        `yaml:"frontend_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	RedisURL        string        `yaml:"redis_url"`
	RateLimit       string        `yaml:"rate_limit"`
	EnableHSTS      bool          `yaml:"enable_hsts"`
	ServerDebugMode bool          `yaml:"server_debug_mode"`
	OTELEnabled     bool          `yaml:"otel_enabled"`
	OTELEndpoint    string        `yaml:"otel_endpoint"`
}

// Load loads configuration. An empty DATABASE_URL selects the in-memory
// store; an empty REDIS_URL selects the in-process rate limit store.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: "8080",
		JWTIssuer:  "todoforge",
		TokenTTL:   24 * time.Hour,
		RateLimit:  "10-S",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overlayEnv(&cfg.DatabaseURL, "DATABASE_URL")
	overlayEnv(&cfg.ServerPort, "SERVER_PORT")
	overlayEnv(&cfg.FrontendURL, "FRONTEND_URL")
	overlayEnv(&cfg.JWTSecret, "JWT_SECRET")
	overlayEnv(&cfg.JWTIssuer, "JWT_ISSUER")
	overlayEnv(&cfg.RedisURL, "REDIS_URL")
	overlayEnv(&cfg.RateLimit, "RATE_LIMIT")
	overlayEnvBool(&cfg.EnableHSTS, "ENABLE_HSTS")
	overlayEnvBool(&cfg.ServerDebugMode, "SERVER_DEBUG_MODE")
	overlayEnvBool(&cfg.OTELEnabled, "OTEL_ENABLED")
	overlayEnv(&cfg.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if value := os.Getenv("TOKEN_TTL_MINUTES"); value != "" {
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL_MINUTES: %s", value)
		}
		cfg.TokenTTL = time.Duration(minutes) * time.Minute
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func overlayEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func overlayEnvBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value == "true" || value == "1" || value == "yes"
	}
}
