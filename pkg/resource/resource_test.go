package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openimpair/controlplane/pkg/distribution"
	"github.com/openimpair/controlplane/pkg/impairment"
	"github.com/openimpair/controlplane/pkg/reservation"
	"github.com/openimpair/controlplane/pkg/transport"
)

// pinnedPortReservedTransport wraps Simulator but makes Relinquish a no-op,
// so a contended resource never actually frees. The bare Simulator's
// Relinquish always succeeds, which lets Mixin.Reserve's wait loop steal a
// held reservation the moment it calls Relinquish — fine for waiting out an
// abandoned reservation, but it means a bare Simulator can't demonstrate a
// genuinely blocked contender. Pinning Relinquish lets the contention tests
// below observe a deterministic timeout instead.
type pinnedPortReservedTransport struct {
	*transport.Simulator
}

func (p *pinnedPortReservedTransport) Relinquish(ctx context.Context, target transport.ResourceRef) error {
	return nil
}

func TestTesterManager_UseModuleUsePort_CachesManagers(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")

	mod1, err := tester.UseModule(context.Background(), 0, false)
	require.NoError(t, err)
	mod2, err := tester.UseModule(context.Background(), 0, false)
	require.NoError(t, err)
	assert.Same(t, mod1, mod2, "UseModule must cache and return the same manager")

	port1, err := tester.UsePort(context.Background(), 0, 3, false)
	require.NoError(t, err)
	port2, err := mod1.UsePort(context.Background(), 3, false)
	require.NoError(t, err)
	assert.Same(t, port1, port2)
}

func TestPortManager_Set_RejectsLinkFlapAndPMAErrorPulseTogether(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")
	port, err := tester.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)

	cfg := PortConfig{
		LinkFlap:      LinkFlapConfig{Enable: true},
		PMAErrorPulse: PMAErrorPulseConfig{Enable: true},
	}
	err = port.Set(context.Background(), cfg)
	require.Error(t, err)
	var mutualErr *MutualExclusionError
	assert.ErrorAs(t, err, &mutualErr)
}

func TestPortManager_Set_AllowsOnlyOneOfLinkFlapPMAErrorPulse(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")
	port, err := tester.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)

	cfg := PortConfig{LinkFlap: LinkFlapConfig{Enable: true, Period: 100, Duration: 50, Repeat: 3}}
	require.NoError(t, port.Set(context.Background(), cfg))

	got, err := port.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.LinkFlap.Enable)
	assert.False(t, got.PMAErrorPulse.Enable)
}

func TestPortManager_CustomDistributionSlot_RangeChecked(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")
	port, err := tester.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)

	_, err = port.CustomDistributionSlot(0)
	assert.Error(t, err)
	_, err = port.CustomDistributionSlot(41)
	assert.Error(t, err)

	d, err := port.CustomDistributionSlot(1)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Index)
}

func TestFlowManager_CommentRoundTrip(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")
	port, err := tester.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)

	flow, err := port.Flow(2)
	require.NoError(t, err)
	require.NoError(t, flow.SetComment(context.Background(), "load test flow"))

	got, err := flow.GetComment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "load test flow", got)
}

// TestFlowManager_IndependentImpairments covers impairment independence:
// starting drop must not affect misordering's enable state.
func TestFlowManager_IndependentImpairments(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")
	port, err := tester.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)
	flow, err := port.Flow(0)
	require.NoError(t, err)

	fb, err := distribution.New(distribution.FixedBurstVariant)
	require.NoError(t, err)
	require.NoError(t, fb.LoadFromResponse(map[string]any{"burstSize": uint32(10)}, map[string]any{}))
	require.NoError(t, flow.Drop.Start(context.Background(), &impairment.Config{CurrentDistribution: fb}))

	dropCfg, err := flow.Drop.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, impairment.On, dropCfg.Enable)

	misCfg, err := flow.Misordering.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, impairment.Off, misCfg.Enable)
}

func TestModuleManager_ClockRoundTrip(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")
	mod, err := tester.UseModule(context.Background(), 0, false)
	require.NoError(t, err)

	require.NoError(t, mod.SetClock(context.Background(), ClockConfig{Source: "External", PPMAdjust: -5}))
	got, err := mod.GetClock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "External", got.Source)
	assert.Equal(t, int32(-5), got.PPMAdjust)
}

// TestTesterManager_UsePort_RejectsDistinctSessionContendingForSamePort
// covers genuine two-user contention through the public UsePort/Reserve
// surface: alice reserves a port through the real Reserve path (not
// ForceReservedByOther), and bob — a distinct TesterManager for a distinct
// session — must be blocked rather than silently taking over alice's
// reservation. Bob's transport is pinned so relinquish never actually frees
// the port, letting the test observe the timeout deterministically instead
// of racing the simulator's normal wait-out-and-steal behavior.
func TestTesterManager_UsePort_RejectsDistinctSessionContendingForSamePort(t *testing.T) {
	sim := transport.NewSimulator()
	alice := NewTester(sim, "t0", "alice")

	alicePort, err := alice.UsePort(context.Background(), 0, 0, true)
	require.NoError(t, err)

	state, err := alicePort.State(context.Background())
	require.NoError(t, err)
	require.Equal(t, transport.ReservedByYou, state, "alice must hold the reservation before bob contends for it")

	bob := NewTester(&pinnedPortReservedTransport{Simulator: sim}, "t0", "bob")
	bobPort, err := bob.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)
	bobPort.Config = reservation.Config{PollInterval: 5 * time.Millisecond, Timeout: 20 * time.Millisecond}

	err = bobPort.Reserve(context.Background(), false, nil)
	require.Error(t, err, "bob must not be able to silently take alice's reservation")
	var timeoutErr *transport.ReservationTimeoutError
	assert.ErrorAs(t, err, &timeoutErr)

	aliceState, err := alicePort.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transport.ReservedByYou, aliceState, "alice's reservation must survive bob's contending attempt")
}

// TestPortManager_Set_FailsAfterReservationLost covers scenario D's closing
// clause: a session that once held a port's reservation loses it to another
// session and its subsequent Set must fail with ReservationLostError
// instead of silently overwriting the new holder's configuration.
func TestPortManager_Set_FailsAfterReservationLost(t *testing.T) {
	sim := transport.NewSimulator()
	alice := NewTester(sim, "t0", "alice")

	port, err := alice.UsePort(context.Background(), 0, 0, true)
	require.NoError(t, err)

	state, err := port.State(context.Background())
	require.NoError(t, err)
	require.Equal(t, transport.ReservedByYou, state)

	sim.ForceReservedByOther(
		transport.ResourceRef{Kind: transport.KindPort, TesterID: "t0", ModuleID: 0, PortID: 0},
		"bob",
	)

	err = port.Set(context.Background(), PortConfig{Comment: "alice was here"})
	require.Error(t, err)
	var lostErr *ReservationLostError
	assert.ErrorAs(t, err, &lostErr)
}

func TestTesterManager_UsePort_CachedPortKeepsReservation(t *testing.T) {
	sim := transport.NewSimulator()
	tester := NewTester(sim, "t0", "session1")

	_, err := tester.UsePort(context.Background(), 0, 0, true)
	require.NoError(t, err)

	port, err := tester.UsePort(context.Background(), 0, 0, false)
	require.NoError(t, err)
	state, err := port.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transport.ReservedByYou, state)
}
