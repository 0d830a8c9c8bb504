package impairment

import "github.com/openimpair/controlplane/pkg/distribution"

// Kind names one of the five distribution-bearing impairments a flow owns.
// Policer and shaper are bandwidth-control impairments with no
// distribution and are modeled separately (pkg/impairment/bandwidth.go).
type Kind string

const (
	Drop          Kind = "drop"
	Misordering   Kind = "misordering"
	LatencyJitter Kind = "latencyJitter"
	Duplication   Kind = "duplication"
	Corruption    Kind = "corruption"
)

// allowed is the compile-time matrix of permitted distribution variants per
// impairment kind.
var allowed = map[Kind][]distribution.Variant{
	Drop: {
		distribution.FixedBurstVariant,   distribution.RandomBurstVariant,   distribution.FixedRateVariant,
		distribution.BitErrorRateVariant, distribution.GilbertElliotVariant, distribution.UniformVariant,
		distribution.GaussianVariant,     distribution.GammaVariant,         distribution.PoissonVariant,
		distribution.CustomVariant,
	},
	Misordering: {
		distribution.FixedBurstVariant, distribution.FixedRateVariant,
	},
	LatencyJitter: {
		distribution.ConstantDelayVariant, distribution.AccumulateBurstVariant, distribution.StepVariant,
		distribution.UniformVariant,       distribution.GaussianVariant,        distribution.GammaVariant,
		distribution.PoissonVariant,       distribution.CustomVariant,
	},
	Duplication: {
		distribution.FixedBurstVariant, distribution.RandomBurstVariant,  distribution.FixedRateVariant,
		distribution.RandomRateVariant, distribution.BitErrorRateVariant, distribution.GilbertElliotVariant,
		distribution.UniformVariant,    distribution.GaussianVariant,     distribution.GammaVariant,
		distribution.PoissonVariant,    distribution.CustomVariant,
	},
	Corruption: {
		distribution.FixedBurstVariant, distribution.RandomBurstVariant,  distribution.FixedRateVariant,
		distribution.RandomRateVariant, distribution.BitErrorRateVariant, distribution.GilbertElliotVariant,
		distribution.UniformVariant,    distribution.GaussianVariant,     distribution.GammaVariant,
		distribution.PoissonVariant,    distribution.CustomVariant,
	},
}

// CorruptionType is only meaningful on the Corruption impairment.
type CorruptionType string

const (
	CorruptionEth CorruptionType = "Eth"
	CorruptionIP  CorruptionType = "IP"
	CorruptionTCP CorruptionType = "TCP"
	CorruptionUDP CorruptionType = "UDP"
)

// AllowedDistributions returns the permitted variant set for k, in the
// declaration order used as the get() tie-break fallback.
func AllowedDistributions(k Kind) []distribution.Variant {
	return allowed[k]
}

// IsAllowed reports whether v may be configured on impairment k.
func IsAllowed(k Kind, v distribution.Variant) bool {
	for _, a := range allowed[k] {
		if a == v {
			return true
		}
	}
	return false
}
