package filter

import (
	"context"

	"github.com/openimpair/controlplane/pkg/transport"
)

// Mode selects which shadow-filter configurator a flow is using.
type Mode string

const (
	BasicMode    Mode = "basic"
	ExtendedMode Mode = "extended"
)

// Manager is the per-flow shadow-filter controller: it owns the
// clear/apply/cancel/enable/disable lifecycle that both configurator modes
// share, and hands out the mode-specific configurator on request.
type Manager struct {
	transport transport.Transport
	resource  transport.ResourceRef
	path      string                // the flow's path, e.g. "flows/0"
}

// New builds a Manager for the flow's shadow filter, addressing fields under
// path.
func New(t transport.Transport, resource transport.ResourceRef, path string) *Manager {
	return &Manager{transport: t, resource: resource, path: path}
}

// Clear issues an initiate command that resets the shadow copy to defaults.
func (m *Manager) Clear(ctx context.Context) error {
	return m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/filter/clear", Params: map[string]any{},
	})
}

// UseBasicMode switches the flow to basic-mode classification and returns
// its configurator.
func (m *Manager) UseBasicMode(ctx context.Context) (*BasicConfigurator, error) {
	if err := m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/filter/mode", Params: map[string]any{"mode": string(BasicMode)},
	}); err != nil {
		return nil, err
	}
	return &BasicConfigurator{transport: m.transport, resource: m.resource, path: m.path + "/filter/basic"}, nil
}

// UseExtendedMode switches the flow to extended-mode classification and
// returns its configurator.
func (m *Manager) UseExtendedMode(ctx context.Context) (*ExtendedConfigurator, error) {
	if err := m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/filter/mode", Params: map[string]any{"mode": string(ExtendedMode)},
	}); err != nil {
		return nil, err
	}
	return &ExtendedConfigurator{transport: m.transport, resource: m.resource, path: m.path + "/filter/extended"}, nil
}

// Apply promotes shadow to working for the whole filter. A transport with an
// ApplyShadow method (the Simulator) is asked to promote the flow's resource;
// the Simulator keeps writes under "/filter/basic/" and "/filter/extended/"
// in shadow until then, and promotes every pending entry of that resource,
// other flows' filters included. Any other transport, the Sandbox included,
// is sent a "filter/apply" command instead.
func (m *Manager) Apply(ctx context.Context) error {
	if promoter, ok := m.transport.(interface{ ApplyShadow(transport.ResourceRef) }); ok {
		promoter.ApplyShadow(m.resource)
		return nil
	}
	return m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/filter/apply", Params: map[string]any{},
	})
}

// Cancel discards shadow and reloads it from working.
func (m *Manager) Cancel(ctx context.Context) error {
	if canceler, ok := m.transport.(interface{ CancelShadow(transport.ResourceRef) }); ok {
		canceler.CancelShadow(m.resource)
		return nil
	}
	return m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/filter/cancel", Params: map[string]any{},
	})
}

// Enable toggles the filter's master switch on the working side.
func (m *Manager) Enable(ctx context.Context) error {
	return m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/enable", Params: map[string]any{"enable": true},
	})
}

// Disable toggles the filter's master switch off.
func (m *Manager) Disable(ctx context.Context) error {
	return m.transport.Set(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/enable", Params: map[string]any{"enable": false},
	})
}
