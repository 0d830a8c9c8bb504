// Package config loads and validates this module's process configuration:
// which transport to dial, reservation polling tunables, the notification
// bus's buffer size, metrics, and logging.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level process configuration.
type Config struct {
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Sandbox     SandboxConfig     `yaml:"sandbox"`
	Reservation ReservationConfig `yaml:"reservation"`
	Notify      NotifyConfig      `yaml:"notify"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Store       StoreConfig       `yaml:"store"`
}

// TelemetryConfig controls the structured logger (pkg/telemetry).
type TelemetryConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SandboxConfig controls the Docker-backed local transport
// (pkg/transport.Sandbox) used for integration runs against a
// containerized chassis simulator.
type SandboxConfig struct {
	Image      string `yaml:"image"`
	PullPolicy string `yaml:"pull_policy"`
}

// ReservationConfig controls the relinquish-then-reserve retry loop
// (pkg/reservation).
type ReservationConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// NotifyConfig controls the notification bus (pkg/notify).
type NotifyConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// MetricsConfig controls the Prometheus exporter's listen address
// (pkg/metrics).
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// StoreConfig controls the persisted-tester-credentials store
// (pkg/store).
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a configuration with this module's defaults: a 10ms
// reservation poll interval, a 30s reservation timeout, and a bounded
// notification buffer.
func DefaultConfig() *Config {
	return &Config{
		Telemetry: TelemetryConfig{
			Level:  "info",
			Format: "text",
		},
		Sandbox: SandboxConfig{
			Image:      "openimpair/chassis-sim:latest",
			PullPolicy: "if_not_present",
		},
		Reservation: ReservationConfig{
			PollInterval: 10 * time.Millisecond,
			Timeout:      30 * time.Second,
		},
		Notify: NotifyConfig{
			BufferSize: 64,
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9400",
		},
		Store: StoreConfig{
			Dir: "~/.config/impairctl/testers",
		},
	}
}

// Load reads configuration from a YAML file at path, expanding environment
// variables in the file content before parsing. A missing file is not an
// error: Load returns DefaultConfig().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "impairctl.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values this module cannot operate
// with.
func (c *Config) Validate() error {
	if c.Sandbox.Image == "" {
		return fmt.Errorf("sandbox.image is required")
	}

	if c.Reservation.PollInterval <= 0 {
		return fmt.Errorf("reservation.poll_interval must be positive")
	}

	if c.Reservation.Timeout <= 0 {
		return fmt.Errorf("reservation.timeout must be positive")
	}

	if c.Notify.BufferSize < 1 {
		return fmt.Errorf("notify.buffer_size must be at least 1")
	}

	return nil
}
