/**
 * Configuration for the document scan worker
 *
 * Loads configuration from environment variables; a local .env is
 * honored for development.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration (queue and rescan file cache)
	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisCacheDB  int

	// PostgreSQL configuration
	DatabaseURL string

	// Remote scan backend
	RemoteAPIURL  string
	RemoteTimeout time.Duration

	// Worker configuration
	QueueName         string
	WorkerConcurrency int
	MaxFileSize       int64
	ProcessingTimeout time.Duration

	// Rescan file retention
	FileRetention time.Duration

	// OCR configuration
	OCRLanguage string

	// Environment
	Env string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Best-effort: production sets real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisCacheDB:      getEnvAsIntOrDefault("REDIS_CACHE_DB", 1),
		DatabaseURL:       getEnvOrThrow("DATABASE_URL"),
		RemoteAPIURL:      getEnvOrDefault("REMOTE_API_URL", ""),
		RemoteTimeout:     time.Duration(getEnvAsIntOrDefault("REMOTE_TIMEOUT_SECONDS", 143)) * time.Second,
		QueueName:         getEnvOrDefault("QUEUE_NAME", "docscan"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		MaxFileSize:       getEnvAsInt64OrDefault("MAX_FILE_SIZE", 52428800), // 50MB
		ProcessingTimeout: time.Duration(getEnvAsIntOrDefault("PROCESSING_TIMEOUT_MS", 360000)) * time.Millisecond,
		FileRetention:     time.Duration(getEnvAsIntOrDefault("FILE_RETENTION_HOURS", 24)) * time.Hour,
		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "eng"),
		Env:               getEnvOrDefault("APP_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxFileSize < 1024 || c.MaxFileSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_FILE_SIZE must be between 1KB and 1GB, got %d", c.MaxFileSize)
	}

	if c.RemoteTimeout < time.Second {
		return fmt.Errorf("REMOTE_TIMEOUT_SECONDS must be at least 1 second, got %v", c.RemoteTimeout)
	}

	// The per-job budget must fit both remote attempts plus the local
	// fallback, otherwise the second tier never runs.
	if c.ProcessingTimeout <= 2*c.RemoteTimeout {
		return fmt.Errorf("PROCESSING_TIMEOUT_MS (%v) must exceed two remote attempts (%v)",
			c.ProcessingTimeout, 2*c.RemoteTimeout)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or panics
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
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

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
