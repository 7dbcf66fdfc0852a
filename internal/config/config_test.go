package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 6464 {
		t.Errorf("default port = %d, want 6464", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "memory" {
		t.Errorf("default storage engine = %q, want memory", cfg.Storage.StorageEngine)
	}
	if cfg.Simulation.Preset != "classic" {
		t.Errorf("default preset = %q, want classic", cfg.Simulation.Preset)
	}
	if cfg.Simulation.JobTimeout != 5*time.Minute {
		t.Errorf("default job timeout = %v, want 5m", cfg.Simulation.JobTimeout)
	}
	if cfg.Simulation.StatsInterval != 10 {
		t.Errorf("default stats interval = %d, want 10", cfg.Simulation.StatsInterval)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("TRIAD_PORT", "8080")
	t.Setenv("TRIAD_STORAGE_ENGINE", "sqlite")
	t.Setenv("TRIAD_PRESET", "grudge_model")
	t.Setenv("TRIAD_JOB_TIMEOUT", "30s")
	t.Setenv("TRIAD_SEED", "12345")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "sqlite" {
		t.Errorf("storage engine = %q, want sqlite", cfg.Storage.StorageEngine)
	}
	if cfg.Simulation.Preset != "grudge_model" {
		t.Errorf("preset = %q, want grudge_model", cfg.Simulation.Preset)
	}
	if cfg.Simulation.JobTimeout != 30*time.Second {
		t.Errorf("job timeout = %v, want 30s", cfg.Simulation.JobTimeout)
	}
	if cfg.Simulation.Seed != 12345 {
		t.Errorf("seed = %d, want 12345", cfg.Simulation.Seed)
	}
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("TRIAD_PORT", "not-a-number")
	t.Setenv("TRIAD_JOB_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 6464 {
		t.Errorf("port = %d, want default 6464", cfg.Server.Port)
	}
	if cfg.Simulation.JobTimeout != 5*time.Minute {
		t.Errorf("job timeout = %v, want default 5m", cfg.Simulation.JobTimeout)
	}
}
