/**
 * Configuration Tests
 */

package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		RedisURL:          "redis://localhost:6379",
		DatabaseURL:       "postgres://localhost:5432/docscan",
		WorkerConcurrency: 10,
		MaxFileSize:       52428800,
		RemoteTimeout:     143 * time.Second,
		ProcessingTimeout: 360 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Missing redis URL", func(c *Config) { c.RedisURL = "" }},
		{"Missing database URL", func(c *Config) { c.DatabaseURL = "" }},
		{"Zero concurrency", func(c *Config) { c.WorkerConcurrency = 0 }},
		{"Excessive concurrency", func(c *Config) { c.WorkerConcurrency = 500 }},
		{"File size too small", func(c *Config) { c.MaxFileSize = 100 }},
		{"File size too large", func(c *Config) { c.MaxFileSize = 2 << 30 }},
		{"Remote timeout too short", func(c *Config) { c.RemoteTimeout = 100 * time.Millisecond }},
		{"Budget below two remote attempts", func(c *Config) {
			c.RemoteTimeout = 143 * time.Second
			c.ProcessingTimeout = 200 * time.Second
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/docscan")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.RemoteTimeout != 143*time.Second {
		t.Errorf("RemoteTimeout = %v, want 143s", cfg.RemoteTimeout)
	}
	if cfg.ProcessingTimeout != 360*time.Second {
		t.Errorf("ProcessingTimeout = %v, want 6m", cfg.ProcessingTimeout)
	}
	if cfg.QueueName != "docscan" {
		t.Errorf("QueueName = %q, want docscan", cfg.QueueName)
	}
	if cfg.FileRetention != 24*time.Hour {
		t.Errorf("FileRetention = %v, want 24h", cfg.FileRetention)
	}
	if cfg.MaxFileSize != 52428800 {
		t.Errorf("MaxFileSize = %d, want 50MB", cfg.MaxFileSize)
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("OCRLanguage = %q, want eng", cfg.OCRLanguage)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/docscan")
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "30")
	t.Setenv("PROCESSING_TIMEOUT_MS", "120000")
	t.Setenv("WORKER_CONCURRENCY", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RemoteTimeout != 30*time.Second {
		t.Errorf("RemoteTimeout = %v, want 30s", cfg.RemoteTimeout)
	}
	if cfg.ProcessingTimeout != 2*time.Minute {
		t.Errorf("ProcessingTimeout = %v, want 2m", cfg.ProcessingTimeout)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	t.Setenv("DOCSCAN_TEST_INT", "not a number")
	if got := getEnvAsIntOrDefault("DOCSCAN_TEST_INT", 7); got != 7 {
		t.Errorf("got %d, want fallback 7", got)
	}
	t.Setenv("DOCSCAN_TEST_INT", "42")
	if got := getEnvAsIntOrDefault("DOCSCAN_TEST_INT", 7); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}
