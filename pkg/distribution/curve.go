package distribution

import "github.com/openimpair/controlplane/pkg/transport"

// Uniform draws its impaired value (delay, or impairment decision weight,
// depending on the hosting impairment) from a uniform distribution over
// [min, max].
type Uniform struct {
	nonBurstSchedule
	Min, Max uint32
}

func NewUniform(min, max uint32) *Uniform {
	return &Uniform{nonBurstSchedule: newNonBurstSchedule(), Min: min, Max: max}
}

func (d *Uniform) Variant() Variant { return UniformVariant }

func (d *Uniform) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, UniformVariant,
		map[string]any{"min": d.Min, "max": d.Max}, d.sched)
}

func (d *Uniform) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Min = toUint32(fields["min"])
	d.Max = toUint32(fields["max"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// Gaussian draws from a normal distribution with the given mean and
// standard deviation.
type Gaussian struct {
	nonBurstSchedule
	Mean, StdDev float64
}

func NewGaussian(mean, stdDev float64) *Gaussian {
	return &Gaussian{nonBurstSchedule: newNonBurstSchedule(), Mean: mean, StdDev: stdDev}
}

func (d *Gaussian) Variant() Variant { return GaussianVariant }

func (d *Gaussian) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, GaussianVariant,
		map[string]any{"mean": d.Mean, "stdDev": d.StdDev}, d.sched)
}

func (d *Gaussian) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Mean = toFloat64(fields["mean"])
	d.StdDev = toFloat64(fields["stdDev"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// Gamma draws from a gamma distribution with the given shape and scale
// parameters.
type Gamma struct {
	nonBurstSchedule
	Shape, Scale float64
}

func NewGamma(shape, scale float64) *Gamma {
	return &Gamma{nonBurstSchedule: newNonBurstSchedule(), Shape: shape, Scale: scale}
}

func (d *Gamma) Variant() Variant { return GammaVariant }

func (d *Gamma) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, GammaVariant,
		map[string]any{"shape": d.Shape, "scale": d.Scale}, d.sched)
}

func (d *Gamma) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Shape = toFloat64(fields["shape"])
	d.Scale = toFloat64(fields["scale"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// Poisson draws from a Poisson distribution with rate lambda.
type Poisson struct {
	nonBurstSchedule
	Lambda float64
}

func NewPoisson(lambda float64) *Poisson {
	return &Poisson{nonBurstSchedule: newNonBurstSchedule(), Lambda: lambda}
}

func (d *Poisson) Variant() Variant { return PoissonVariant }

func (d *Poisson) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, PoissonVariant,
		map[string]any{"lambda": d.Lambda}, d.sched)
}

func (d *Poisson) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Lambda = toFloat64(fields["lambda"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// Step ramps linearly between min and max over the schedule's period; only
// valid under latencyJitter.
type Step struct {
	nonBurstSchedule
	Min, Max uint32
}

func NewStep(min, max uint32) *Step {
	return &Step{nonBurstSchedule: newNonBurstSchedule(), Min: min, Max: max}
}

func (d *Step) Variant() Variant { return StepVariant }

func (d *Step) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, StepVariant,
		map[string]any{"min": d.Min, "max": d.Max}, d.sched)
}

func (d *Step) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Min = toUint32(fields["min"])
	d.Max = toUint32(fields["max"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}
