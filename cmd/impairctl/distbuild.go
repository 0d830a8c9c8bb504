package main

import (
	"fmt"

	"github.com/openimpair/controlplane/pkg/distribution"
)

// repeatableBurst is satisfied by burst-schedule distributions (FixedBurst,
// AccumulateBurst): Repeat(period) switches them off oneShot.
type repeatableBurst interface {
	Repeat(period uint32)
}

// repeatableNonBurst is satisfied by non-burst-schedule distributions
// (RandomBurst, the rate/curve family): RepeatPattern(duration, period)
// switches them off continuous.
type repeatableNonBurst interface {
	RepeatPattern(duration, period uint32)
}

// buildDistribution constructs variant from CLI-supplied parameters and
// applies a repeat schedule if repeatPeriod is non-zero (repeatDuration is
// ignored for burst-schedule variants, whose duration is always 1 — the
// burst-schedule repeat(period) contract).
func buildDistribution(variant distribution.Variant, params map[string]float64, repeatDuration, repeatPeriod uint32) (distribution.Distribution, error) {
	u32 := func(key string) uint32 { return uint32(params[key]) }
	f64 := func(key string) float64 { return params[key] }

	var    d       distribution.Distribution
	switch variant {
	case distribution.FixedBurstVariant:
		d = distribution.NewFixedBurst(u32("burstSize"))
	case distribution.AccumulateBurstVariant:
		d = distribution.NewAccumulateBurst(u32("burstDelay"))
	case distribution.RandomBurstVariant:
		d = distribution.NewRandomBurst(u32("min"), u32("max"), u32("probabilityPPM"))
	case distribution.FixedRateVariant:
		d = distribution.NewFixedRate(u32("probabilityPPM"))
	case distribution.RandomRateVariant:
		d = distribution.NewRandomRate(u32("probabilityPPM"))
	case distribution.BitErrorRateVariant:
		d = distribution.NewBitErrorRate(u32("coefficient"), u32("exponent"))
	case distribution.GilbertElliotVariant:
		d = distribution.NewGilbertElliot(u32("goodImpair"), u32("goodTrans"), u32("badImpair"), u32("badTrans"))
	case distribution.UniformVariant:
		d = distribution.NewUniform(u32("min"), u32("max"))
	case distribution.GaussianVariant:
		d = distribution.NewGaussian(f64("mean"), f64("stdDev"))
	case distribution.GammaVariant:
		d = distribution.NewGamma(f64("shape"), f64("scale"))
	case distribution.PoissonVariant:
		d = distribution.NewPoisson(f64("lambda"))
	case distribution.StepVariant:
		d = distribution.NewStep(u32("min"), u32("max"))
	case distribution.ConstantDelayVariant:
		d = distribution.NewConstantDelay(u32("delay"))
	case distribution.CustomVariant:
		custom, err := distribution.NewCustom(u32("index"))
		if err != nil {
			return nil, fmt.Errorf("custom distribution: %w", err)
		}
		d = custom
	default:
		return nil, fmt.Errorf("unknown distribution variant %q", variant)
	}

	if repeatPeriod > 0 {
		switch sched := d.(type) {
		case repeatableBurst:
			sched.Repeat(repeatPeriod)
		case repeatableNonBurst:
			sched.RepeatPattern(repeatDuration, repeatPeriod)
		}
	}

	return d, nil
}
