// Package config provides centralized configuration for the penline note
// engine. It loads configuration from CLI flags and environment variables,
// validates required fields, and provides sensible defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all engine configuration.
type Config struct {
	// Remote persistence service
	APIBaseURL  string        // API_BASE_URL, e.g. https://notes.example.com
	HTTPTimeout time.Duration // Per-request timeout for remote calls
	RemoteRPS   float64       // Client-side request rate cap
	RemoteBurst int           // Client-side request burst cap

	// Editing behavior
	DebounceWindow time.Duration // Quiescence window before a save is issued
	NewNoteTitle   string        // Placeholder title for freshly created notes

	// Notifications
	ToastTTL time.Duration // How long a toast stays visible unless dismissed
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
func ParseFlags() (apiBaseURL string) {
	flag.StringVar(&apiBaseURL, "api", "", "Base URL of the notes API (overrides API_BASE_URL env var)")
	flag.Parse()
	return apiBaseURL
}

// LoadConfig loads configuration from environment variables and CLI flag
// values. A non-empty apiBaseURL overrides the API_BASE_URL env var.
func LoadConfig(apiBaseURL string) (*Config, error) {
	cfg := &Config{}

	cfg.APIBaseURL = strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if apiBaseURL != "" {
		cfg.APIBaseURL = strings.TrimSpace(apiBaseURL)
	}
	cfg.HTTPTimeout = parseDurationOrDefault("HTTP_TIMEOUT", 10*time.Second)
	cfg.RemoteRPS = parseFloat64OrDefault("REMOTE_RPS", 10)
	cfg.RemoteBurst = parseIntOrDefault("REMOTE_BURST", 20)

	cfg.DebounceWindow = parseDurationOrDefault("DEBOUNCE_WINDOW", 500*time.Millisecond)
	cfg.NewNoteTitle = getEnvOrDefault("NEW_NOTE_TITLE", "New Note")

	cfg.ToastTTL = parseDurationOrDefault("TOAST_TTL", 3*time.Second)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.APIBaseURL == "" {
		errs = append(errs, "API_BASE_URL is required (set env var or use -api)")
	} else if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "API_BASE_URL must be an absolute URL (e.g. http://localhost:3000)")
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.DebounceWindow <= 0 {
		errs = append(errs, "DEBOUNCE_WINDOW must be positive")
	}
	if c.ToastTTL <= 0 {
		errs = append(errs, "TOAST_TTL must be positive")
	}
	if c.RemoteRPS <= 0 {
		errs = append(errs, "REMOTE_RPS must be positive")
	}
	if c.RemoteBurst <= 0 {
		errs = append(errs, "REMOTE_BURST must be positive")
	}
	if c.NewNoteTitle == "" {
		errs = append(errs, "NEW_NOTE_TITLE must not be empty")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "penline starting...")
	fmt.Fprintf(os.Stderr, "  API:      %s\n", c.APIBaseURL)
	fmt.Fprintf(os.Stderr, "  Debounce: %s\n", c.DebounceWindow)
	fmt.Fprintf(os.Stderr, "  Toast:    %s\n", c.ToastTTL)
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoadConfig loads configuration and panics if validation fails.
// Use this in main() when you want the application to fail fast on bad config.
func MustLoadConfig(apiBaseURL string) *Config {
	cfg, err := LoadConfig(apiBaseURL)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
