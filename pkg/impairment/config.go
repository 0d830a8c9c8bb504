package impairment

import "github.com/openimpair/controlplane/pkg/distribution"

// Enable mirrors the device's On/Off field values.
type Enable string

const (
	On  Enable = "On"
	Off Enable = "Off"
)

// Config is the value object for one distribution-bearing impairment on one
// flow: an enable bit, a schedule (owned by currentDistribution
// once one is set), and at most one active distribution. It carries no live
// reference to hardware — produced by Manager.Get, consumed by Manager.Set.
type Config struct {
	Enable              Enable
	CurrentDistribution distribution.Distribution

	// CorruptionType is only meaningful when this Config belongs to the
	// Corruption impairment (corruptionType ∈ {Eth, IP, TCP, UDP}); left at
	// its zero value for every other impairment kind.
	CorruptionType CorruptionType
}

// SetDistribution validates d against k's allowed set before installing it:
// configuration-level errors are returned from set synchronously, before any
// I/O.
func (c *Config) SetDistribution(k Kind, d distribution.Distribution) error {
	if !IsAllowed(k, d.Variant()) {
		return &InvalidDistributionError{Impairment: k, Got: d.Variant(), Allowed: AllowedDistributions(k)}
	}
	c.CurrentDistribution = d
	return nil
}
