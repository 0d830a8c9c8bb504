package telemetry

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutputIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Info("reservation transition", "resource", "port:0", "to", "reservedByYou")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reservation transition", entry["message"])
	assert.Equal(t, "port:0", entry["resource"])
	assert.Equal(t, "reservedByYou", entry["to"])
}

func TestLogger_DebugSuppressedBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	log.Info("should not appear")
	assert.Empty(t, buf.String())

	log.Warn("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestLogger_WithAddsPersistentField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	child := log.With("component", "transport")

	child.Info("applied batch")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "transport", entry["component"])
}
