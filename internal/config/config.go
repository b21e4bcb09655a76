package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubBaseURL string
	GitHubToken   string // optional
	HTTPTimeout   time.Duration

	// Aggregation
	BranchConcurrency int
	RetryMaxRetries   int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		GitHubBaseURL: getEnv("GITHUB_BASE_URL", "https://api.github.com"),
		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		APIPort:       getEnv("API_PORT", "8080"),
		APIHost:       getEnv("API_HOST", "localhost"),
		APIEndpoint:   getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.BranchConcurrency, err = getInt("BRANCH_CONCURRENCY", 10); err != nil {
		return nil, err
	}
	if cfg.RetryMaxRetries, err = getInt("RETRY_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay, err = getDuration("RETRY_BASE_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryMaxDelay, err = getDuration("RETRY_MAX_DELAY", 30*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("must be an integer, got %q", value)}
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("must be a duration like 2s, got %q", value)}
	}
	return d, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHubBaseURL == "" {
		return &ConfigError{Field: "GITHUB_BASE_URL", Message: "base URL is required"}
	}
	if c.BranchConcurrency <= 0 {
		return &ConfigError{Field: "BRANCH_CONCURRENCY", Message: "must be greater than zero"}
	}
	if c.RetryMaxRetries < 0 {
		return &ConfigError{Field: "RETRY_MAX_RETRIES", Message: "must not be negative"}
	}
	if c.RetryBaseDelay < 0 || c.RetryMaxDelay < 0 {
		return &ConfigError{Field: "RETRY_BASE_DELAY", Message: "delays must not be negative"}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return &ConfigError{Field: "LOG_FORMAT", Message: "must be 'text' or 'json'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
