package impairment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openimpair/controlplane/pkg/distribution"
	"github.com/openimpair/controlplane/pkg/transport"
)

func flowRef() transport.ResourceRef {
	return transport.ResourceRef{Kind: transport.KindPort, TesterID: "t1", ModuleID: 0, PortID: 0}
}

// TestConfig_SetDistribution_RejectsDisallowed covers the universal
// invariant that misordering only allows FixedBurst/FixedRate.
func TestConfig_SetDistribution_RejectsDisallowed(t *testing.T) {
	cfg := &Config{}
	gaussian := distribution.NewGaussian(0, 1)

	err := cfg.SetDistribution(Misordering, gaussian)
	require.Error(t, err)

	var invalid *InvalidDistributionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, Misordering, invalid.Impairment)
	assert.ElementsMatch(t, []distribution.Variant{distribution.FixedBurstVariant, distribution.FixedRateVariant}, invalid.Allowed)
	assert.Nil(t, cfg.CurrentDistribution, "a rejected distribution must not be installed")
}

// TestManager_ScenarioA_DropFixedBurst covers a drop/fixed-burst round trip.
func TestManager_ScenarioA_DropFixedBurst(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), Drop, "flows/0/drop")
	ctx := context.Background()

	cfg := &Config{Enable: On}
	fb := distribution.NewFixedBurst(5)
	fb.Repeat(5)
	require.NoError(t, cfg.SetDistribution(Drop, fb))

	require.NoError(t, mgr.Start(ctx, cfg))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, On, got.Enable)

	fixed, ok := got.CurrentDistribution.(*distribution.FixedBurst)
	require.True(t, ok)
	assert.Equal(t, uint32(5), fixed.BurstSize)
	assert.Equal(t, distribution.Schedule{Duration: 1, Period: 5}, fixed.Schedule())
}

// TestManager_ScenarioB_ConstantDelay covers a latency/constant-delay round trip.
func TestManager_ScenarioB_ConstantDelay(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), LatencyJitter, "flows/0/latencyJitter")
	ctx := context.Background()

	cfg := &Config{Enable: On}
	require.NoError(t, cfg.SetDistribution(LatencyJitter, distribution.NewConstantDelay(100000)))

	require.NoError(t, mgr.Start(ctx, cfg))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, On, got.Enable)

	delay, ok := got.CurrentDistribution.(*distribution.ConstantDelay)
	require.True(t, ok)
	assert.Equal(t, uint32(100000), delay.Delay)
	assert.Equal(t, distribution.Schedule{Duration: 1, Period: 0}, delay.Schedule())
}

// TestManager_ScenarioF_PartialResponseGet covers the partial-response case:
// exactly one of the allowed set's distribution reads succeeds, the rest
// return NotValid, and no error surfaces.
func TestManager_ScenarioF_PartialResponseGet(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), Drop, "flows/0/drop")
	ctx := context.Background()

	cfg := &Config{}
	require.NoError(t, cfg.SetDistribution(Drop, distribution.NewFixedBurst(9)))
	require.NoError(t, mgr.Set(ctx, cfg))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)

	fixed, ok := got.CurrentDistribution.(*distribution.FixedBurst)
	require.True(t, ok, "exactly one allowed-set distribution was ever set")
	assert.Equal(t, uint32(9), fixed.BurstSize)
}

func TestManager_Stop_LeavesDistributionIntact(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), Drop, "flows/0/drop")
	ctx := context.Background()

	cfg := &Config{Enable: On}
	require.NoError(t, cfg.SetDistribution(Drop, distribution.NewFixedBurst(3)))
	require.NoError(t, mgr.Start(ctx, cfg))

	require.NoError(t, mgr.Stop(ctx))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Off, got.Enable)
	require.NotNil(t, got.CurrentDistribution)
}

func TestManager_Set_WithoutDistribution_Fails(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), Drop, "flows/0/drop")

	err := mgr.Set(context.Background(), &Config{})
	require.Error(t, err)
	var notSet *DistributionNotSetError
	require.ErrorAs(t, err, &notSet)
}

// TestManager_CorruptionType_RoundTrips covers the corruptionType field:
// Start emits it alongside the distribution, and Get reads it back.
func TestManager_CorruptionType_RoundTrips(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), Corruption, "flows/0/corruption")
	ctx := context.Background()

	cfg := &Config{Enable: On, CorruptionType: CorruptionTCP}
	require.NoError(t, cfg.SetDistribution(Corruption, distribution.NewFixedRate(1000)))
	require.NoError(t, mgr.Start(ctx, cfg))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, On, got.Enable)
	assert.Equal(t, CorruptionTCP, got.CorruptionType)
}

// TestManager_CorruptionType_DefaultsToZeroValue covers the case where the
// device has never had a type set: Get must not fail, and the corruption
// type comes back as the zero value.
func TestManager_CorruptionType_DefaultsToZeroValue(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := New(sim, flowRef(), Corruption, "flows/0/corruption")
	ctx := context.Background()

	cfg := &Config{}
	require.NoError(t, cfg.SetDistribution(Corruption, distribution.NewFixedRate(500)))
	require.NoError(t, mgr.Set(ctx, cfg))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, CorruptionType(""), got.CorruptionType)
}

func TestBandwidthManager_StartCommitsAndStopPreserves(t *testing.T) {
	sim := transport.NewSimulator()
	mgr := NewBandwidth(sim, flowRef(), Policer, "flows/0/policer")
	ctx := context.Background()

	cfg := BandwidthConfig{Mode: L2, CIR: 1000, CBS: 64}
	require.NoError(t, mgr.Start(ctx, cfg))

	got, err := mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, On, got.OnOff)
	assert.Equal(t, uint32(1000), got.CIR)

	require.NoError(t, mgr.Stop(ctx))
	got, err = mgr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Off, got.OnOff)
	assert.Equal(t, uint32(1000), got.CIR, "stop must not disturb CIR/CBS")
}
