package distribution

import "github.com/openimpair/controlplane/pkg/transport"

// FixedRate impairs packets at a constant per-packet probability, expressed
// in parts-per-million.
type FixedRate struct {
	nonBurstSchedule
	ProbabilityPPM uint32
}

func NewFixedRate(probabilityPPM uint32) *FixedRate {
	return &FixedRate{nonBurstSchedule: newNonBurstSchedule(), ProbabilityPPM: probabilityPPM}
}

func (d *FixedRate) Variant() Variant { return FixedRateVariant }

func (d *FixedRate) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, FixedRateVariant,
		map[string]any{"probability": d.ProbabilityPPM}, d.sched)
}

func (d *FixedRate) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.ProbabilityPPM = toUint32(fields["probability"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// RandomRate is FixedRate's sibling with a device-side random seed reroll
// per opportunity rather than a deterministic counter; its client
// shape is identical.
type RandomRate struct {
	nonBurstSchedule
	ProbabilityPPM uint32
}

func NewRandomRate(probabilityPPM uint32) *RandomRate {
	return &RandomRate{nonBurstSchedule: newNonBurstSchedule(), ProbabilityPPM: probabilityPPM}
}

func (d *RandomRate) Variant() Variant { return RandomRateVariant }

func (d *RandomRate) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, RandomRateVariant,
		map[string]any{"probability": d.ProbabilityPPM}, d.sched)
}

func (d *RandomRate) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.ProbabilityPPM = toUint32(fields["probability"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// BitErrorRate models impairment probability as coefficient * 10^-exponent.
type BitErrorRate struct {
	nonBurstSchedule
	Coefficient uint32
	Exponent    uint32
}

func NewBitErrorRate(coefficient, exponent uint32) *BitErrorRate {
	return &BitErrorRate{nonBurstSchedule: newNonBurstSchedule(), Coefficient: coefficient, Exponent: exponent}
}

func (d *BitErrorRate) Variant() Variant { return BitErrorRateVariant }

func (d *BitErrorRate) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, BitErrorRateVariant,
		map[string]any{"coefficient": d.Coefficient, "exponent": d.Exponent}, d.sched)
}

func (d *BitErrorRate) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Coefficient = toUint32(fields["coefficient"])
	d.Exponent = toUint32(fields["exponent"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}

// GilbertElliot is the two-state (good/bad) Markov error model: each state
// carries its own impair probability and transition probability, all in
// parts-per-million.
type GilbertElliot struct {
	nonBurstSchedule
	GoodImpairPPM uint32
	GoodTransPPM  uint32
	BadImpairPPM  uint32
	BadTransPPM   uint32
}

func NewGilbertElliot(goodImpair, goodTrans, badImpair, badTrans uint32) *GilbertElliot {
	return &GilbertElliot{
		nonBurstSchedule: newNonBurstSchedule(),
		GoodImpairPPM:    goodImpair,
		GoodTransPPM:     goodTrans,
		BadImpairPPM:     badImpair,
		BadTransPPM:      badTrans,
	}
}

func (d *GilbertElliot) Variant() Variant { return GilbertElliotVariant }

func (d *GilbertElliot) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, GilbertElliotVariant, map[string]any{
		"goodImpair": d.GoodImpairPPM,
		"goodTrans": d.GoodTransPPM,
		"badImpair": d.BadImpairPPM,
		"badTrans": d.BadTransPPM,
	}, d.sched)
}

func (d *GilbertElliot) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.GoodImpairPPM = toUint32(fields["goodImpair"])
	d.GoodTransPPM = toUint32(fields["goodTrans"])
	d.BadImpairPPM = toUint32(fields["badImpair"])
	d.BadTransPPM = toUint32(fields["badTrans"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}
