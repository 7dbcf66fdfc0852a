// Package config provides configuration management for Triad.
// It loads settings from environment variables with the TRIAD_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the Triad application.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Simulation SimulationConfig
	Security   SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6464)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains graph store configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: memory, sqlite, postgres (default: memory)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // Postgres connection string when the engine is postgres
}

// SimulationConfig contains the simulation defaults.
type SimulationConfig struct {
	Preset        string        // Component preset name (default: classic)
	PresetsPath   string        // Optional YAML file with additional presets
	Seed          uint64        // RNG seed; 0 picks a time-based seed
	JobTimeout    time.Duration // Wall-clock bound per simulation job (default: 5m)
	StatsInterval int           // Iterations between job stats snapshots (default: 10)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token (required in production mode)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the TRIAD_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("TRIAD_PORT", 6464),
			Host: getEnv("TRIAD_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("TRIAD_STORAGE_ENGINE", "memory"),
			DataPath:      getEnv("TRIAD_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("TRIAD_POSTGRES_DSN", ""),
		},
		Simulation: SimulationConfig{
			Preset:        getEnv("TRIAD_PRESET", "classic"),
			PresetsPath:   getEnv("TRIAD_PRESETS_PATH", ""),
			Seed:          uint64(getEnvInt("TRIAD_SEED", 0)),
			JobTimeout:    getEnvDuration("TRIAD_JOB_TIMEOUT", 5*time.Minute),
			StatsInterval: getEnvInt("TRIAD_STATS_INTERVAL", 10),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("TRIAD_SECURITY_MODE", "development"),
			APIToken:     getEnv("TRIAD_API_TOKEN", ""),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "30s", "5m") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
