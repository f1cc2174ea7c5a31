// Package config loads Splitledger settings from the environment and .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/storage/backend"
	"github.com/mmynk/splitledger/pkg/logging"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	// Storage
	Backend    string
	StorePath  string
	StorageDir string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// A .env file in the current directory is loaded when present; an explicit
// envPath must exist. Variables already set in the environment take precedence.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ShutdownTimeout:    shutdownTimeout,

		Backend:    strings.ToLower(getEnv("STORE_BACKEND", string(backend.File))),
		StorePath:  os.Getenv("STORE_PATH"),
		StorageDir: getEnv("STORAGE_DIR", "./data"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// StoreLocation returns STORE_PATH, or the backend's default file under STORAGE_DIR.
func (c *Config) StoreLocation() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return filepath.Join(c.StorageDir, backend.Type(c.Backend).DefaultFileName())
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !backend.Type(c.Backend).IsValid() {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.Backend, backend.Types))
	}

	if c.StorePath == "" && c.StorageDir == "" {
		errors = append(errors, "either STORE_PATH or STORAGE_DIR must be set")
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(c.CORSAllowedOrigins) == 0 {
		errors = append(errors, "CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
