package distribution

import (
	"fmt"

	"github.com/openimpair/controlplane/pkg/transport"
)

// Custom references one of a port's 40 user-programmed CustomDistribution
// slots by index. The slot's actual shape data lives in
// pkg/resource's CustomDistributions container, not here; this variant only
// carries the reference.
type Custom struct {
	nonBurstSchedule
	Index uint32
}

// NewCustom validates the 1..40 index range up front: configuration-level
// errors are returned from set synchronously, before any I/O — an
// out-of-range index is a client mistake, not a device
// round trip.
func NewCustom(index uint32) (*Custom, error) {
	if index < 1 || index > 40 {
		return nil, fmt.Errorf("distribution: custom index %d out of range 1..40", index)
	}
	return &Custom{nonBurstSchedule: newNonBurstSchedule(), Index: index}, nil
}

func (d *Custom) Variant() Variant { return CustomVariant }

func (d *Custom) EmitApply(resource transport.ResourceRef, impairmentPath string) []transport.Token {
	return emitApplyTokens(resource, impairmentPath, CustomVariant,
		map[string]any{"index": d.Index}, d.sched)
}

func (d *Custom) LoadFromResponse(fields map[string]any, scheduleFields map[string]any) error {
	d.Index = toUint32(fields["index"])
	d.sched = scheduleFromFields(scheduleFields)
	return nil
}
