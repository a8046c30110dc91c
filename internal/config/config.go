// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration
type Config struct {
	// Logging
	LogLevel string

	// ONNX Runtime shared library
	ORTLibrary string

	// Recognition models and their charset files. An empty model path
	// disables that model.
	OCRModel      string
	OCRCharset    string
	OCROldModel   string
	OCROldCharset string
	DetectorModel string
	CustomModel   string
	CustomCharset string

	// Inference
	PoolSize    int
	CallTimeout time.Duration

	// Default charset range for probability calls, in selector syntax
	DefaultRange string
}

// Load reads envFile if it exists, then the environment. An empty envFile
// means ".env" in the working directory. Existing environment variables win
// over values from the file.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && (explicit || !os.IsNotExist(err)) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		LogLevel:      strings.ToLower(getEnvOrDefault("CAPTCHA_MCP_LOG_LEVEL", "info")),
		ORTLibrary:    getEnvOrDefault("CAPTCHA_MCP_ORT_LIB", "libonnxruntime.so"),
		OCRModel:      getEnvOrDefault("CAPTCHA_MCP_OCR_MODEL", ""),
		OCRCharset:    getEnvOrDefault("CAPTCHA_MCP_OCR_CHARSET", ""),
		OCROldModel:   getEnvOrDefault("CAPTCHA_MCP_OCR_OLD_MODEL", ""),
		OCROldCharset: getEnvOrDefault("CAPTCHA_MCP_OCR_OLD_CHARSET", ""),
		DetectorModel: getEnvOrDefault("CAPTCHA_MCP_DET_MODEL", ""),
		CustomModel:   getEnvOrDefault("CAPTCHA_MCP_DIY_MODEL", ""),
		CustomCharset: getEnvOrDefault("CAPTCHA_MCP_DIY_CHARSET", ""),
		PoolSize:      getEnvAsIntOrDefault("CAPTCHA_MCP_POOL_SIZE", 4),
		CallTimeout:   time.Duration(getEnvAsIntOrDefault("CAPTCHA_MCP_CALL_TIMEOUT_MS", 30000)) * time.Millisecond,
		DefaultRange:  getEnvOrDefault("CAPTCHA_MCP_RANGE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.PoolSize < 1 || c.PoolSize > 64 {
		return fmt.Errorf("CAPTCHA_MCP_POOL_SIZE must be between 1 and 64, got %d", c.PoolSize)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("CAPTCHA_MCP_CALL_TIMEOUT_MS must not be negative, got %v", c.CallTimeout)
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" {
		return fmt.Errorf("CAPTCHA_MCP_LOG_LEVEL must be debug or info, got %q", c.LogLevel)
	}
	if c.OCRModel != "" && c.OCRCharset == "" {
		return fmt.Errorf("CAPTCHA_MCP_OCR_CHARSET is required with CAPTCHA_MCP_OCR_MODEL")
	}
	if c.OCROldModel != "" && c.OCROldCharset == "" {
		return fmt.Errorf("CAPTCHA_MCP_OCR_OLD_CHARSET is required with CAPTCHA_MCP_OCR_OLD_MODEL")
	}
	if c.CustomModel != "" && c.CustomCharset == "" {
		return fmt.Errorf("CAPTCHA_MCP_DIY_CHARSET is required with CAPTCHA_MCP_DIY_MODEL")
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// NeedsRuntime reports whether any model is configured.
func (c *Config) NeedsRuntime() bool {
	return c.OCRModel != "" || c.OCROldModel != "" || c.DetectorModel != "" || c.CustomModel != ""
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
