package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/openimpair/controlplane/pkg/reservation"
	"github.com/openimpair/controlplane/pkg/transport"
)

// ClockConfig is a module's clock/timing configuration: the
// chassis-wide reference source each module's ports time their emitted
// schedules against.
type ClockConfig struct {
	Source       string // e.g. "Internal", "External", "Module"
	PPMAdjust    int32
	SyncedToPort int    // 0 when not synced to a specific port
}

func (c ClockConfig) fields() map[string]any {
	return map[string]any{
		"source": c.Source,
		"ppmAdjust": c.PPMAdjust,
		"syncedToPort": c.SyncedToPort,
	}
}

func clockConfigFromFields(fields map[string]any) ClockConfig {
	source, _ := fields["source"].(string)
	return ClockConfig{
		Source:       source,
		PPMAdjust:    toInt32(fields["ppmAdjust"]),
		SyncedToPort: int(toInt32(fields["syncedToPort"])),
	}
}

func toInt32(v any) int32 {
	switch n := v.(type) {
	case int32:
		return n
	case int:
		return int32(n)
	case int64:
		return int32(n)
	case float64:
		return int32(n)
	default:
		return 0
	}
}

// ModuleManager owns one module's clock/timing config, its ports (created
// on demand), and the reservation mixin shared with
// Tester/Port.
type ModuleManager struct {
	reservation.Mixin

	transport transport.Transport
	resource  transport.ResourceRef
	path string // e.g. "tester:t0/module:0"

	mu    sync.Mutex
	ports map[int]*PortManager
}

func newModuleManager(t transport.Transport, resource transport.ResourceRef, sessionID, path string) *ModuleManager {
	return &ModuleManager{
		Mixin:     reservation.Mixin{Transport: t, Resource: resource, SessionID: sessionID},
		transport: t,
		resource:  resource,
		path:      path,
		ports:     make(map[int]*PortManager),
	}
}

// GetClock reads the module's clock/timing config.
func (m *ModuleManager) GetClock(ctx context.Context) (ClockConfig, error) {
	resp, err := m.transport.Get(ctx, transport.GetToken{Resource: m.resource, Path: m.path + "/clock"})
	if err != nil {
		return ClockConfig{}, err
	}
	return clockConfigFromFields(resp.Fields), nil
}

// SetClock writes the module's clock/timing config.
func (m *ModuleManager) SetClock(ctx context.Context, cfg ClockConfig) error {
	return m.transport.Set(ctx, transport.SetToken{Resource: m.resource, Path: m.path + "/clock", Params: cfg.fields()})
}

// UsePort returns the manager for port id, creating it on first use and
// caching it for the module's lifetime. When reserve
// is true, it also reserves the port — waiting out any ReservedByOther
// holder first — after confirming this module itself is not
// held by another client: reserving a port requires the enclosing
// module/tester not to be reserved by another client.
func (m *ModuleManager) UsePort(ctx context.Context, id int, reserve bool) (*PortManager, error) {
	if id < 0 {
		return nil, &InvalidChimeraResourceError{Kind: "port"}
	}

	m.mu.Lock()
	port, ok := m.ports[id]
	if !ok {
		portRef := transport.ResourceRef{Kind: transport.KindPort, TesterID: m.resource.TesterID, ModuleID: m.resource.ModuleID, PortID: id}
		port = newPortManager(m.transport, portRef, m.SessionID, fmt.Sprintf("%s/port:%d", m.path, id))
		m.ports[id] = port
	}
	m.mu.Unlock()

	if reserve {
		state, err := m.State(ctx)
		if err != nil {
			return nil, err
		}
		if state == transport.ReservedByOther {
			return nil, fmt.Errorf("resource: module %s is reserved by another client", m.resource)
		}
		if err := port.Reserve(ctx, false, nil); err != nil {
			return nil, err
		}
	}
	return port, nil
}
