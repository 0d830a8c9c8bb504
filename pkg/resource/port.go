package resource

import (
	"context"
	"fmt"

	"github.com/openimpair/controlplane/pkg/reservation"
	"github.com/openimpair/controlplane/pkg/transport"
)

// TPLDMode selects how Xena TPLD test payloads are generated for a port.
type TPLDMode string

const (
	TPLDModeNormal TPLDMode = "Normal"
	TPLDModeMicro  TPLDMode = "Micro"
)

// LinkFlapConfig drives periodic link up/down toggling on a port.
type LinkFlapConfig struct {
	Enable   bool
	Period   uint32 // ms
	Duration uint32 // ms
	Repeat   uint32
}

// PMAErrorPulseConfig drives periodic PMA-layer error injection on a port.
type PMAErrorPulseConfig struct {
	Enable   bool
	Period   uint32 // ms
	Duration uint32 // ms
	Repeat   uint32
}

// PortConfig is the composite record PortManager.Get/Set round-trip.
// LinkFlap and PMAErrorPulse are mutually exclusive — at most one
// may carry Enable=true.
type PortConfig struct {
	Comment          string
	TxEnable         bool
	AutonegSelection bool
	ImpairmentEnable bool
	TPLDMode         TPLDMode
	FCSErrorMode     bool
	LinkFlap         LinkFlapConfig
	PMAErrorPulse    PMAErrorPulseConfig
}

func (c PortConfig) fields() map[string]any {
	return map[string]any{
		"comment": c.Comment,
		"txEnable": c.TxEnable,
		"autonegSelection": c.AutonegSelection,
		"impairmentEnable": c.ImpairmentEnable,
		"tpldMode": string(c.TPLDMode),
		"fcsErrorMode": c.FCSErrorMode,
		"linkFlap": map[string]any{
			"enable": c.LinkFlap.Enable, "period": c.LinkFlap.Period,
			"duration": c.LinkFlap.Duration, "repeat": c.LinkFlap.Repeat,
		},
		"pmaErrorPulse": map[string]any{
			"enable": c.PMAErrorPulse.Enable, "period": c.PMAErrorPulse.Period,
			"duration": c.PMAErrorPulse.Duration, "repeat": c.PMAErrorPulse.Repeat,
		},
	}
}

func portConfigFromFields(fields map[string]any) PortConfig {
	b := func(k string) bool { v, _ := fields[k].(bool); return v }
	s := func(k string) string { v, _ := fields[k].(string); return v }
	sub := func(k string) map[string]any {
		v, _ := fields[k].(map[string]any)
		return v
	}
	toU32 := func(v any) uint32 {
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
	lf := sub("linkFlap")
	pe := sub("pmaErrorPulse")
	return PortConfig{
		Comment:          s("comment"),
		TxEnable:         b("txEnable"),
		AutonegSelection: b("autonegSelection"),
		ImpairmentEnable: b("impairmentEnable"),
		TPLDMode:         TPLDMode(s("tpldMode")),
		FCSErrorMode:     b("fcsErrorMode"),
		LinkFlap:         LinkFlapConfig{
			Enable: func() bool { v, _ := lf["enable"].(bool); return v }(),
			Period: toU32(lf["period"]), Duration: toU32(lf["duration"]), Repeat: toU32(lf["repeat"]),
		},
		PMAErrorPulse: PMAErrorPulseConfig{
			Enable: func() bool { v, _ := pe["enable"].(bool); return v }(),
			Period: toU32(pe["period"]), Duration: toU32(pe["duration"]), Repeat: toU32(pe["repeat"]),
		},
	}
}

// CustomDistribution is one of a port's 40 user-defined distribution slots.
// EntryCount is 512 for packet-spacing distributions, 1024 for
// latency distributions — the caller is responsible for supplying the right
// count for DistributionType; this package does not validate it since the
// mapping from type to expected count is a device convention, not a
// structural invariant.
type CustomDistribution struct {
	Index            int
	DistributionType string
	Linear           bool
	Symmetric        bool
	EntryCount       uint32
	DataX            []uint32
	Comment          string
}

// PortManager owns one port's configuration, its 8-element flow array, its
// 40-slot custom-distribution container, and the reservation mixin shared
// with Module/Tester.
type PortManager struct {
	reservation.Mixin

	transport transport.Transport
	resource  transport.ResourceRef
	path      string // e.g. "tester:t0/module:0/port:0"

	Flows               [8]*FlowManager
	CustomDistributions map[int]*CustomDistribution
}

func newPortManager(t transport.Transport, resource transport.ResourceRef, sessionID string, path string) *PortManager {
	p := &PortManager{
		Mixin:               reservation.Mixin{Transport: t, Resource: resource, SessionID: sessionID},
		transport:           t,
		resource:            resource,
		path:                path,
		CustomDistributions: make(map[int]*CustomDistribution),
	}
	for i := 0; i < 8; i++ {
		p.Flows[i] = newFlowManager(t, resource, path, i)
	}
	return p
}

// Get reads the port's composite config record.
func (p *PortManager) Get(ctx context.Context) (PortConfig, error) {
	resp, err := p.transport.Get(ctx, transport.GetToken{Resource: p.resource, Path: p.path + "/config"})
	if err != nil {
		return PortConfig{}, err
	}
	return portConfigFromFields(resp.Fields), nil
}

// Set writes the port's composite config record, rejecting a config that
// would enable both link-flap and PMA-error-pulse before any I/O. It also
// refuses to write once another session has reserved the port out from
// under this one, returning ReservationLostError rather than silently
// overwriting state the other session now owns.
func (p *PortManager) Set(ctx context.Context, cfg PortConfig) error {
	if cfg.LinkFlap.Enable && cfg.PMAErrorPulse.Enable {
		return &MutualExclusionError{Port: p.resource}
	}
	state, err := p.State(ctx)
	if err != nil {
		return err
	}
	if state == transport.ReservedByOther {
		return &ReservationLostError{Port: p.resource}
	}
	return p.transport.Set(ctx, transport.SetToken{
		Resource: p.resource, Path: p.path + "/config", Params: cfg.fields(),
	})
}

// Flow returns the port's flow manager at index 0..7.
func (p *PortManager) Flow(index int) (*FlowManager, error) {
	if index < 0 || index > 7 {
		return nil, fmt.Errorf("resource: flow index %d out of range 0..7", index)
	}
	return p.Flows[index], nil
}

// CustomDistributionSlot returns (creating if absent) the custom-distribution
// slot at index 1..40.
func (p *PortManager) CustomDistributionSlot(index int) (*CustomDistribution, error) {
	if index < 1 || index > 40 {
		return nil, fmt.Errorf("resource: custom distribution index %d out of range 1..40", index)
	}
	d, ok := p.CustomDistributions[index]
	if !ok {
		d = &CustomDistribution{Index: index}
		p.CustomDistributions[index] = d
	}
	return d, nil
}

// SetCustomDistribution writes a custom distribution's parameters.
func (p *PortManager) SetCustomDistribution(ctx context.Context, d CustomDistribution) error {
	if d.Index < 1 || d.Index > 40 {
		return fmt.Errorf("resource: custom distribution index %d out of range 1..40", d.Index)
	}
	path := fmt.Sprintf("%s/customDistributions/%d", p.path, d.Index)
	err := p.transport.Set(ctx, transport.SetToken{Resource: p.resource, Path: path, Params: map[string]any{
		"distributionType": d.DistributionType,
		"linear": d.Linear,
		"symmetric": d.Symmetric,
		"entryCount": d.EntryCount,
		"dataX": d.DataX,
		"comment": d.Comment,
	}})
	if err != nil {
		return err
	}
	cp := d
	p.CustomDistributions[d.Index] = &cp
	return nil
}
