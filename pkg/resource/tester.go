// Package resource implements the Tester/Module/Port/Flow resource
// hierarchy: reservation-aware managers created on demand,
// aggregating the shadow-filter and impairment managers underneath.
package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/openimpair/controlplane/pkg/reservation"
	"github.com/openimpair/controlplane/pkg/transport"
)

// TesterManager is the entry point into one tester's resource tree:
// useModule/usePort both create managers lazily and cache them for
// the tester's lifetime, optionally reserving on return.
type TesterManager struct {
	reservation.Mixin

	transport transport.Transport
	resource  transport.ResourceRef
	id        string

	mu      sync.Mutex
	modules map[int]*ModuleManager
}

// NewTester wraps t as the entry point for tester id, addressed under
// sessionID for reservation purposes.
func NewTester(t transport.Transport, id, sessionID string) *TesterManager {
	ref := transport.ResourceRef{Kind: transport.KindTester, TesterID: id}
	return &TesterManager{
		Mixin:     reservation.Mixin{Transport: t, Resource: ref, SessionID: sessionID},
		transport: t,
		resource:  ref,
		id:        id,
		modules:   make(map[int]*ModuleManager),
	}
}

// ID returns the tester's identifier as known to MainController.
func (tm *TesterManager) ID() string { return tm.id }

// UseModule returns the manager for module id, creating it on first use and
// caching it for the tester's lifetime. When reserve
// is true it also reserves the module, waiting out any ReservedByOther
// holder first.
func (tm *TesterManager) UseModule(ctx context.Context, id int, reserve bool) (*ModuleManager, error) {
	if id < 0 {
		return nil, &InvalidChimeraResourceError{Kind: "module"}
	}

	tm.mu.Lock()
	mod, ok := tm.modules[id]
	if !ok {
		modRef := transport.ResourceRef{Kind: transport.KindModule, TesterID: tm.id, ModuleID: id}
		mod = newModuleManager(tm.transport, modRef, tm.SessionID, fmt.Sprintf("tester:%s/module:%d", tm.id, id))
		tm.modules[id] = mod
	}
	tm.mu.Unlock()

	if reserve {
		if err := mod.Reserve(ctx, false, nil); err != nil {
			return nil, err
		}
	}
	return mod, nil
}

// UsePort is a convenience that resolves the module then delegates to its
// UsePort.
func (tm *TesterManager) UsePort(ctx context.Context, moduleID, portID int, reserve bool) (*PortManager, error) {
	mod, err := tm.UseModule(ctx, moduleID, false)
	if err != nil {
		return nil, err
	}
	if reserve {
		state, err := tm.State(ctx)
		if err != nil {
			return nil, err
		}
		if state == transport.ReservedByOther {
			return nil, fmt.Errorf("resource: tester %s is reserved by another client", tm.id)
		}
	}
	return mod.UsePort(ctx, portID, reserve)
}
