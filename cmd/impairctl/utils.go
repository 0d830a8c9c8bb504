package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/openimpair/controlplane/pkg/config"
	"github.com/openimpair/controlplane/pkg/controller"
	"github.com/openimpair/controlplane/pkg/notify"
	"github.com/openimpair/controlplane/pkg/store"
	"github.com/openimpair/controlplane/pkg/telemetry"
	"github.com/openimpair/controlplane/pkg/transport"
)

// loadConfig loads the configuration from file, auto-generating a default
// one if none exists.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = "impairctl.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("config file not found, creating default configuration at: %s\n", path)
		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the telemetry logger for this invocation, bumping to
// debug level under --verbose.
func newLogger(cfg *config.Config) *telemetry.Logger {
	level := telemetry.Level(cfg.Telemetry.Level)
	if verbose {
		level = telemetry.LevelDebug
	}
	return telemetry.New(telemetry.Config{
		Level:  level,
		Format: telemetry.Format(cfg.Telemetry.Format),
		Output: os.Stdout,
	})
}

// newController wires a MainController from cfg: a Dial that resolves
// Simulator credentials to an in-memory transport and everything else to
// the Docker-backed sandbox, the persisted-tester store, and a fresh
// notification bus.
func newController(cfg *config.Config, log *telemetry.Logger) (*controller.MainController, error) {
	st, err := store.Open(expandHome(cfg.Store.Dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open tester store: %w", err)
	}

	dial := func(ctx context.Context, creds controller.Credentials) (transport.Transport, error) {
		if creds.Product == controller.ProductSimulator {
			return transport.NewSimulator(), nil
		}
		return transport.NewSandbox(ctx, transport.SandboxConfig{Image: cfg.Sandbox.Image})
	}

	ctrl := controller.New(dial, st, notify.New(notify.WithBufferSize(cfg.Notify.BufferSize)), log)
	if err := ctrl.Restore(); err != nil {
		return nil, fmt.Errorf("failed to restore persisted testers: %w", err)
	}
	return ctrl, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return n, nil
}

func parseTwoInts(a, b string) (int, int, error) {
	n1, err := parseInt(a)
	if err != nil {
		return 0, 0, err
	}
	n2, err := parseInt(b)
	if err != nil {
		return 0, 0, err
	}
	return n1, n2, nil
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
