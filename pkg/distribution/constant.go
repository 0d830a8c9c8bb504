package distribution

import "github.com/openimpair/controlplane/pkg/transport"

// ConstantDelay applies a fixed delay (100 ns increments) to every
// packet. It is the only fixed-continuous-schedule variant: its schedule is
// always {1,0} and every mutation attempt is ignored (testable property 5).
// It is also the only variant valid exclusively under latencyJitter among
// its schedule-mode peers.
type ConstantDelay struct {
	fixedContinuousSchedule
	Delay uint32
}

func NewConstantDelay(delay uint32) *ConstantDelay {
	return &ConstantDelay{Delay: delay}
}

func (d *ConstantDelay) Variant() Variant { return ConstantDelayVariant }

func (d *ConstantDelay) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, ConstantDelayVariant,
		map[string]any{"delay": d.Delay}, d.Schedule())
}

// LoadFromResponse ignores scheduleFields: ConstantDelay's schedule is never
// read back since it can never have changed: the load step is skipped for
// ConstantDelay's fixed schedule.
func (d *ConstantDelay) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Delay = toUint32(fields["delay"])
	return nil
}
