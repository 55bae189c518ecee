package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/handover/internal/api"
	"github.com/ShayCichocki/handover/internal/config"
	"github.com/ShayCichocki/handover/internal/engine"
	"github.com/ShayCichocki/handover/internal/pipeline"
	"github.com/ShayCichocki/handover/internal/signal"
	"github.com/ShayCichocki/handover/internal/state"
)

// app bundles the wired-up dependencies every command needs: config,
// database, stop-signal watcher, API client, and the engine over the
// full pipeline graph.
type app struct {
	cfg     *config.Config
	db      *state.DB
	signals *signal.Watcher
	client  *api.Client
	engine  *engine.Engine
}

// newApp loads config and wires the pipeline. withClient controls
// whether an API client is constructed; commands that never call the
// model (status, stop, cleanup) skip it so they work without a key.
func newApp(withClient bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := state.Open(state.DBPath(cfg.Storage.DataDir))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	signals, err := signal.New(cfg.Storage.DataDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create signal watcher: %w", err)
	}

	a := &app{cfg: cfg, db: db, signals: signals}
	if !withClient {
		return a, nil
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create API client: %w", err)
	}
	a.client = client

	p := pipeline.New(client, cfg, loadPassProfiles(cfg), db)
	eng, err := engine.New(p.Graph(), db, engine.WithStopCheck(signals.ShouldStop))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	a.engine = eng

	return a, nil
}

// loadPassProfiles reads the optional per-type pass ceiling file next
// to the user config, falling back to the config defaults.
func loadPassProfiles(cfg *config.Config) *config.PassProfiles {
	path := filepath.Join(filepath.Dir(config.GetUserConfigPath()), "pass_profiles.yaml")
	if _, err := os.Stat(path); err != nil {
		return config.DefaultPassProfiles(cfg.Analysis)
	}
	profiles, err := config.LoadPassProfiles(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		return config.DefaultPassProfiles(cfg.Analysis)
	}
	return profiles
}

func (a *app) Close() {
	if a.signals != nil {
		a.signals.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
