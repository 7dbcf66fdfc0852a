package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/triad/internal/config"
	"github.com/scrypster/triad/internal/engine"
	"github.com/scrypster/triad/internal/model"
	"github.com/scrypster/triad/internal/server"
	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/internal/storage/memory"
	"github.com/scrypster/triad/internal/storage/postgres"
	"github.com/scrypster/triad/internal/storage/sqlite"
)

func main() {
	presetFlag := flag.String("preset", "", "Component preset name (overrides TRIAD_PRESET)")
	presetsPath := flag.String("presets", "", "Path to a YAML file with additional presets")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *presetFlag != "" {
		cfg.Simulation.Preset = *presetFlag
	}
	if *presetsPath != "" {
		cfg.Simulation.PresetsPath = *presetsPath
	}

	comps, err := resolveComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to resolve preset: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The circuit breaker turns repeated backend failures into fast
	// ErrUnavailable responses, which abort running jobs cleanly.
	eng := engine.New(engine.NewBreakerStore(store), comps, cfg.Simulation.Seed)
	manager := engine.NewJobManager(eng, cfg.Simulation.JobTimeout, cfg.Simulation.StatsInterval)

	addr, _ := server.Start(ctx, cfg, store, eng, manager)
	log.Printf("Triad running at http://%s (preset %s, storage %s)",
		addr, comps.Preset, cfg.Storage.StorageEngine)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// resolveComponents picks the configured preset from the built-ins, or
// from the presets file when one is configured (file entries take
// precedence over built-ins of the same name).
func resolveComponents(cfg *config.Config) (model.Components, error) {
	name := cfg.Simulation.Preset
	if cfg.Simulation.PresetsPath != "" {
		presets, err := model.LoadPresetsFile(cfg.Simulation.PresetsPath)
		if err != nil {
			return model.Components{}, err
		}
		if spec, ok := presets[name]; ok {
			return model.Resolve(name, spec)
		}
	}
	return model.ResolvePreset(name)
}

// openStore builds the graph store named by the configuration.
func openStore(cfg *config.Config) (storage.GraphStore, error) {
	switch cfg.Storage.StorageEngine {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return sqlite.New(cfg.Storage.DataPath + "/triad.db")
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("TRIAD_POSTGRES_DSN is required for the postgres engine")
		}
		return postgres.New(cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage engine %q (expected memory, sqlite, or postgres)", cfg.Storage.StorageEngine)
	}
}
