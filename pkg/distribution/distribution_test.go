package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openimpair/controlplane/pkg/transport"
)

func testRef() transport.ResourceRef {
	return transport.ResourceRef{Kind: transport.KindPort, TesterID: "t1", PortID: 0}
}

func TestBurstSchedule_OneShotAndRepeat(t *testing.T) {
	d := NewFixedBurst(5)
	assert.Equal(t, Schedule{Duration: 1, Period: 0}, d.Schedule(), "fresh burst distribution defaults to oneShot")

	d.Repeat(5)
	assert.Equal(t, Schedule{Duration: 1, Period: 5}, d.Schedule())

	d.OneShot()
	assert.Equal(t, Schedule{Duration: 1, Period: 0}, d.Schedule())
}

func TestNonBurstSchedule_ContinuousAndRepeatPattern(t *testing.T) {
	d := NewFixedRate(250000)
	assert.Equal(t, Schedule{Duration: 1, Period: 0}, d.Schedule())

	d.RepeatPattern(10, 20)
	assert.Equal(t, Schedule{Duration: 10, Period: 20}, d.Schedule())

	d.Continuous()
	assert.Equal(t, Schedule{Duration: 1, Period: 0}, d.Schedule())
}

func TestConstantDelay_ScheduleIsImmutable(t *testing.T) {
	d := NewConstantDelay(100000)
	assert.Equal(t, Schedule{Duration: 1, Period: 0}, d.Schedule())
	assert.Equal(t, FixedContinuous, d.ScheduleMode())

	tokens := d.EmitApply(testRef(), "latencyJitter")
	require.Len(t, tokens, 2)
	setTok := tokens[1].(transport.SetToken)
	assert.Equal(t, uint32(1), setTok.Params["duration"])
	assert.Equal(t, uint32(0), setTok.Params["period"])
}

func TestFixedBurst_EmitApply(t *testing.T) {
	d := NewFixedBurst(5)
	d.Repeat(5)

	tokens := d.EmitApply(testRef(), "drop")
	require.Len(t, tokens, 2)

	distTok := tokens[0].(transport.SetToken)
	assert.Equal(t, "drop/distribution/fixedBurst", distTok.Path)
	assert.Equal(t, uint32(5), distTok.Params["burstSize"])

	schedTok := tokens[1].(transport.SetToken)
	assert.Equal(t, "drop/schedule", schedTok.Path)
	assert.Equal(t, uint32(1), schedTok.Params["duration"])
	assert.Equal(t, uint32(5), schedTok.Params["period"])
}

func TestFixedBurst_RoundTrip(t *testing.T) {
	d := NewFixedBurst(7)
	d.Repeat(3)

	loaded := &FixedBurst{}
	err := loaded.LoadFromResponse(
		map[string]any{"burstSize": uint32(7)},
		map[string]any{"duration": uint32(1), "period": uint32(3)},
	)
	require.NoError(t, err)
	assert.Equal(t, d.BurstSize, loaded.BurstSize)
	assert.Equal(t, d.Schedule(), loaded.Schedule())
}

func TestCustom_IndexRangeValidated(t *testing.T) {
	_, err := NewCustom(0)
	assert.Error(t, err)

	_, err = NewCustom(41)
	assert.Error(t, err)

	d, err := NewCustom(40)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), d.Index)
}

func TestNew_DispatchesEveryVariant(t *testing.T) {
	for _, v := range AllVariants {
		d, err := New(v)
		require.NoErrorf(t, err, "variant %s", v)
		assert.Equal(t, v, d.Variant())
	}
}

func TestNew_UnknownVariant(t *testing.T) {
	_, err := New(Variant("bogus"))
	assert.Error(t, err)
}

func TestGaussian_FloatRoundTrip(t *testing.T) {
	d := NewGaussian(1.5, 0.25)
	tokens := d.EmitApply(testRef(), "latencyJitter")
	distTok := tokens[0].(transport.SetToken)
	assert.InDelta(t, 1.5, distTok.Params["mean"], 0.0001)

	loaded := &Gaussian{}
	require.NoError(t, loaded.LoadFromResponse(
		map[string]any{"mean": 1.5, "stdDev": 0.25},
		map[string]any{"duration": uint32(1), "period": uint32(0)},
	))
	assert.InDelta(t, d.Mean, loaded.Mean, 0.0001)
	assert.InDelta(t, d.StdDev, loaded.StdDev, 0.0001)
}
