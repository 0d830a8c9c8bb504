package impairment

import (
	"context"

	"github.com/openimpair/controlplane/pkg/transport"
)

// BandwidthKind names the two bandwidth-control impairments, which carry no
// distribution or schedule.
type BandwidthKind string

const (
	Policer BandwidthKind = "policer"
	Shaper  BandwidthKind = "shaper"
)

// BandwidthMode selects the layer the CIR/CBS parameters are measured at.
type BandwidthMode string

const (
	L1 BandwidthMode = "L1"
	L2 BandwidthMode = "L2"
)

// BandwidthConfig is the composite record for a Policer or Shaper:
// onOff plus CIR/CBS leaky-bucket parameters. BufferSize only applies to a
// Shaper; it is ignored on emit for a Policer.
type BandwidthConfig struct {
	OnOff      Enable
	Mode       BandwidthMode
	CIR        uint32        // x100 kbps
	CBS        uint32        // frames
	BufferSize uint32        // shaper only
}

func (c BandwidthConfig) fields(kind BandwidthKind) map[string]any {
	f := map[string]any{
		"onOff": c.OnOff == On,
		"mode": string(c.Mode),
		"cir": c.CIR,
		"cbs": c.CBS,
	}
	if kind == Shaper {
		f["bufferSize"] = c.BufferSize
	}
	return f
}

func bandwidthConfigFromFields(fields map[string]any) BandwidthConfig {
	onOff := Off
	if v, _ := fields["onOff"].(bool); v {
		onOff = On
	}
	mode, _ := fields["mode"].(string)
	return BandwidthConfig{
		OnOff:      onOff,
		Mode:       BandwidthMode(mode),
		CIR:        toUint32Field(fields["cir"]),
		CBS:        toUint32Field(fields["cbs"]),
		BufferSize: toUint32Field(fields["bufferSize"]),
	}
}

func toUint32Field(v any) uint32 {
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

// BandwidthManager is the simpler sibling of Manager for the
// distribution-free policer/shaper impairments: get() reads one
// composite record, set() writes it back, start() sets onOff := On and
// commits all parameters, stop() sets onOff := Off.
type BandwidthManager struct {
	transport transport.Transport
	resource  transport.ResourceRef
	kind      BandwidthKind
	path      string
}

// NewBandwidth builds a BandwidthManager for kind (Policer or Shaper) on
// resource, addressing fields under path.
func NewBandwidth(t transport.Transport, resource transport.ResourceRef, kind BandwidthKind, path string) *BandwidthManager {
	return &BandwidthManager{transport: t, resource: resource, kind: kind, path: path}
}

func (m *BandwidthManager) Get(ctx context.Context) (BandwidthConfig, error) {
	resp, err := m.transport.Get(ctx, transport.GetToken{Resource: m.resource, Path: m.path})
	if err != nil {
		return BandwidthConfig{}, err
	}
	return bandwidthConfigFromFields(resp.Fields), nil
}

func (m *BandwidthManager) Set(ctx context.Context, cfg BandwidthConfig) error {
	return m.transport.Set(ctx, transport.SetToken{Resource: m.resource, Path: m.path, Params: cfg.fields(m.kind)})
}

// Start sets onOff := On and commits all parameters in a single set-mode
// batch.
func (m *BandwidthManager) Start(ctx context.Context, cfg BandwidthConfig) error {
	cfg.OnOff = On
	return m.Set(ctx, cfg)
}

// Stop sets onOff := Off without disturbing CIR/CBS/BufferSize.
func (m *BandwidthManager) Stop(ctx context.Context) error {
	cfg, err := m.Get(ctx)
	if err != nil {
		return err
	}
	cfg.OnOff = Off
	return m.Set(ctx, cfg)
}
