package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PassesValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesYAMLAndExpandsEnv(t *testing.T) {
	t.Setenv("IMPAIR_SANDBOX_IMAGE", "registry.local/chassis-sim:pinned")

	path := filepath.Join(t.TempDir(), "impairctl.yaml")
	content := []byte(`
sandbox:
 image: "${IMPAIR_SANDBOX_IMAGE}"
reservation:
 poll_interval: 5ms
 timeout: 10s
notify:
 buffer_size: 128
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "registry.local/chassis-sim:pinned", cfg.Sandbox.Image)
	assert.Equal(t, 5*time.Millisecond, cfg.Reservation.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Reservation.Timeout)
	assert.Equal(t, 128, cfg.Notify.BufferSize)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "info", cfg.Telemetry.Level)
}

func TestSave_RoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.ListenAddr = ":9999"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", reloaded.Metrics.ListenAddr)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mutate func(*Config)
	}{
		{"empty sandbox image", func(c *Config) { c.Sandbox.Image = "" }},
		{"non-positive poll interval", func(c *Config) { c.Reservation.PollInterval = 0 }},
		{"non-positive timeout", func(c *Config) { c.Reservation.Timeout = -1 }},
		{"buffer size below one", func(c *Config) { c.Notify.BufferSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
