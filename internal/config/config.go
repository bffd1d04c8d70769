// Package config provides configuration for the PDF chat service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Ollama backend
	OllamaURL   string
	OllamaModel string

	// Timeouts
	GenerateTimeout time.Duration
	ProbeTimeout    time.Duration

	// Session lifecycle
	SessionTimeout time.Duration
	SweepInterval  time.Duration

	// Upload limits
	MaxUploadBytes int64
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.2"),
		GenerateTimeout: time.Duration(getEnvInt("GENERATE_TIMEOUT_MS", 300000)) * time.Millisecond,
		ProbeTimeout:    time.Duration(getEnvInt("PROBE_TIMEOUT_MS", 3000)) * time.Millisecond,
		SessionTimeout:  time.Duration(getEnvInt("SESSION_TIMEOUT_MIN", 120)) * time.Minute,
		SweepInterval:   time.Duration(getEnvInt("SWEEP_INTERVAL_MIN", 30)) * time.Minute,
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 50*1024*1024)),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
