// Package config loads epitok settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when Load is called without explicit files.
const DefaultEnvFile = ".env"

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// School intranet
	Intra IntraConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	// Timezone deciding what "today" means (default: Europe/Paris)
	Timezone string
	Location *time.Location
}

// IntraConfig holds intranet client settings.
type IntraConfig struct {
	// Base URL of the intranet. Autologin links must start with it.
	BaseURL string

	// Autologin link. Optional here; the CLI can also read it from a file
	// or prompt for it.
	Autologin string

	// Rate limiting (stay polite with the intranet)
	RateLimit      float64 // requests per second, 0 disables
	RateLimitBurst int     // burst size
	RequestTimeout time.Duration

	UserAgent string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// MetricsDump logs the request metrics when the command finishes.
	MetricsDump bool
}

// Load reads envFiles (or DefaultEnvFile when none are given) into the
// process environment, then builds and validates the configuration.
// Missing files are ignored; variables already set are never overridden.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		App:           loadAppConfig(),
		Intra:         loadIntraConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func loadAppConfig() AppConfig {
	timezone := getEnv("APP_TIMEZONE", "Europe/Paris")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = nil
	}

	return AppConfig{
		Timezone: timezone,
		Location: loc,
	}
}

func loadIntraConfig() IntraConfig {
	return IntraConfig{
		BaseURL:        strings.TrimRight(getEnv("EPITOK_INTRA_URL", "https://intra.epitech.eu"), "/"),
		Autologin:      strings.TrimSpace(os.Getenv("EPITOK_AUTOLOGIN")),
		RateLimit:      getEnvFloat("EPITOK_RATE_LIMIT", 4),
		RateLimitBurst: getEnvInt("EPITOK_RATE_LIMIT_BURST", 8),
		RequestTimeout: getEnvDuration("EPITOK_REQUEST_TIMEOUT", 30*time.Second),
		UserAgent:      getEnv("EPITOK_USER_AGENT", "epitok"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:    getEnv("LOG_LEVEL", "warn"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		MetricsDump: getEnvBool("METRICS_DUMP", false),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Location == nil {
		errs = append(errs, fmt.Sprintf("APP_TIMEZONE %q is not a known timezone", c.App.Timezone))
	}

	if u, err := url.Parse(c.Intra.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "EPITOK_INTRA_URL must be an absolute URL")
	}

	if c.Intra.RateLimit < 0 {
		errs = append(errs, "EPITOK_RATE_LIMIT must not be negative")
	}

	if c.Intra.RateLimitBurst < 1 {
		errs = append(errs, "EPITOK_RATE_LIMIT_BURST must be at least 1")
	}

	if c.Intra.RequestTimeout <= 0 {
		errs = append(errs, "EPITOK_REQUEST_TIMEOUT must be positive")
	}

	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, "LOG_FORMAT must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
