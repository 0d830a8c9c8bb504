// Package distribution implements the fourteen statistical/scheduling
// distribution variants an impairment can be configured with. The package is
// pure data and dispatch: it builds the command tokens that configure a
// distribution on a device and decodes device responses back into Go
// values, but it never performs I/O itself — that belongs to the
// impairment manager (pkg/impairment) which owns a transport.Transport.
// Distributions are modeled as a tagged union: a shared Distribution
// interface plus one struct per variant, each embedding exactly one of the
// three schedule-mode helpers (burstSchedule, nonBurstSchedule,
// fixedContinuousSchedule). This is a closed parameter-shape set (a
// string/enum discriminator over otherwise-unrelated struct shapes),
// generalized from "one fault picks one
// shape" to "one distribution variant picks one schedule contract."
package distribution

import (
	"fmt"

	"github.com/openimpair/controlplane/pkg/transport"
)

// Variant names one of the fourteen distribution kinds. Values match the
// wire field names used in command token paths.
type Variant string

const (
	FixedBurstVariant      Variant = "fixedBurst"
	AccumulateBurstVariant Variant = "accumulateBurst"
	RandomBurstVariant     Variant = "randomBurst"
	FixedRateVariant       Variant = "fixedRate"
	RandomRateVariant      Variant = "randomRate"
	BitErrorRateVariant    Variant = "bitErrorRate"
	GilbertElliotVariant   Variant = "gilbertElliot"
	UniformVariant         Variant = "uniform"
	GaussianVariant        Variant = "gaussian"
	GammaVariant           Variant = "gamma"
	PoissonVariant         Variant = "poisson"
	StepVariant            Variant = "step"
	ConstantDelayVariant   Variant = "constantDelay"
	CustomVariant          Variant = "custom"
)

// AllVariants enumerates every distribution kind, in the declaration order
// used as the tie-break fallback in pkg/impairment's get() fold.
var AllVariants = []Variant{
	FixedBurstVariant,
	AccumulateBurstVariant,
	RandomBurstVariant,
	FixedRateVariant,
	RandomRateVariant,
	BitErrorRateVariant,
	GilbertElliotVariant,
	UniformVariant,
	GaussianVariant,
	GammaVariant,
	PoissonVariant,
	StepVariant,
	ConstantDelayVariant,
	CustomVariant,
}

// ScheduleMode is the scheduling contract a distribution variant carries.
type ScheduleMode string

const (
	Burst           ScheduleMode = "burst"
	NonBurst        ScheduleMode = "nonBurst"
	FixedContinuous ScheduleMode = "fixedContinuous"
)

// Schedule is the device-side {duration, period} pair. Units are defined per
// distribution: 10 ms increments for packet-spacing distributions, 100 ns
// increments for latency distributions.
type Schedule struct {
	Duration uint32
	Period   uint32
}

// Distribution is the shared interface every variant implements: emitApply,
// loadFromResponse, and an (optional, mode-gated) schedule.
type Distribution interface {
	Variant() Variant
	ScheduleMode() ScheduleMode
	Schedule() Schedule

	// EmitApply produces the command sequence that configures this
	// distribution on resource, scoped under impairmentPath (e.g. "drop"):
	// a distribution.<variant>.set(params) token, then a schedule.set(d,p)
	// token. SetAt is not part of the emitted tokens; it is the
	// device's concern on write.
	EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token

	// LoadFromResponse populates the variant's parameters and (if
	// applicable) schedule from a successful get response. fields is the
	// distribution.<variant>.get() response body;
	// scheduleFields is the schedule.get() response body, or nil for
	// FixedContinuous variants which never read it back.
	LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error
}

// New constructs a zero-valued instance of variant, ready for
// LoadFromResponse. Used by pkg/impairment's get() to materialize whichever
// variant's parallel read came back non-NotValid.
func New(v Variant) (Distribution, error) {
	switch v {
	case FixedBurstVariant:
		return &FixedBurst{}, nil
	case AccumulateBurstVariant:
		return &AccumulateBurst{}, nil
	case RandomBurstVariant:
		return &RandomBurst{}, nil
	case FixedRateVariant:
		return &FixedRate{}, nil
	case RandomRateVariant:
		return &RandomRate{}, nil
	case BitErrorRateVariant:
		return &BitErrorRate{}, nil
	case GilbertElliotVariant:
		return &GilbertElliot{}, nil
	case UniformVariant:
		return &Uniform{}, nil
	case GaussianVariant:
		return &Gaussian{}, nil
	case GammaVariant:
		return &Gamma{}, nil
	case PoissonVariant:
		return &Poisson{}, nil
	case StepVariant:
		return &Step{}, nil
	case ConstantDelayVariant:
		return &ConstantDelay{}, nil
	case CustomVariant:
		return &Custom{}, nil
	default:
		return nil, fmt.Errorf("distribution: unknown variant %q", v)
	}
}

func emitApplyTokens(resource transport.ResourceRef, impairmentPath string, variant Variant, params map[string]any, sched Schedule) []transport.Token {
	return []transport.Token{
		transport.SetToken{
			Resource: resource,
			Path:     fmt.Sprintf("%s/distribution/%s", impairmentPath, variant),
			Params:   params,
		},
		transport.SetToken{
			Resource: resource,
			Path:     impairmentPath + "/schedule",
			Params:   map[string]any{"duration": sched.Duration, "period": sched.Period},
		},
	}
}

func scheduleFromFields(fields map[string]any) Schedule {
	return Schedule{
		Duration: toUint32(fields["duration"]),
		Period:   toUint32(fields["period"]),
	}
}

// --- numeric field decoding ---
// Device responses travel as map[string]any; depending on the transport
// (Simulator stores native Go values, Sandbox round-trips through JSON)
// numbers may arrive as any of Go's numeric kinds or as json.Number-shaped
// float64. toUint32/toFloat64 normalize both.

func toUint32(v any) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case int:
		return uint32(n)
	case int64:
		return uint32(n)
	case float64:
		return uint32(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint32:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toInt(v any) int {
	return int(toFloat64(v))
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
