// Package reservation implements the three-state reservation state machine
// shared by the tester, module, and port managers: Released,
// ReservedByYou, ReservedByOther, driven by reserve/release/relinquish
// events.
package reservation

import (
	"context"
	"time"

	"github.com/openimpair/controlplane/pkg/transport"
)

// Config tunes the relinquish-then-reserve retry loop.
type Config struct {
	// PollInterval between relinquish polls while waiting for a resource
	// held by another session to become Released. Defaults to 10ms.
	PollInterval time.Duration
	// Timeout bounds the whole wait; exceeding it returns
	// transport.ReservationTimeoutError. Defaults to 30s.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Mixin is embedded by the tester/module/port managers to give each the
// same reserve/release/relinquish behavior over one resource.
type Mixin struct {
	Transport transport.Transport
	Resource  transport.ResourceRef
	SessionID string
	Config    Config
}

// State reports the resource's current reservation state as seen by this
// session: another session's reservation shows as ReservedByOther, this
// session's own shows as ReservedByYou.
func (m *Mixin) State(ctx context.Context) (transport.ReservationState, error) {
	return m.Transport.ReservationState(ctx, m.Resource, m.SessionID)
}

// Reserve takes the resource for this session. If another session holds it,
// Reserve first relinquishes in a polling loop until the device reports
// Released, then issues reserve. freeSubResources additionally
// relinquishes-then-releases every descendant reserved by someone else
// before taking the parent, by delegating to the caller-supplied free
// function — Mixin itself has no notion of descendants.
func (m *Mixin) Reserve(ctx context.Context, freeSubResources bool, freeDescendants func(context.Context) error) error {
	cfg := m.Config.withDefaults()

	state, err := m.State(ctx)
	if err != nil {
		return err
	}

	if state == transport.ReservedByOther {
		if err := m.waitForRelease(ctx, cfg); err != nil {
			return err
		}
	}

	if freeSubResources && freeDescendants != nil {
		if err := freeDescendants(ctx); err != nil {
			return err
		}
	}

	return m.Transport.Reserve(ctx, m.Resource, m.SessionID)
}

// waitForRelease issues relinquish on a poll interval until the resource
// reports Released, or returns ReservationTimeoutError once cfg.Timeout
// elapses.
func (m *Mixin) waitForRelease(ctx context.Context, cfg Config) error {
	deadline := time.Now().Add(cfg.Timeout)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := m.Transport.Relinquish(ctx, m.Resource); err != nil {
			return err
		}
		state, err := m.State(ctx)
		if err != nil {
			return err
		}
		if state == transport.Released {
			return nil
		}
		if time.Now().After(deadline) {
			return &transport.ReservationTimeoutError{Resource: m.Resource, Waited: cfg.Timeout.String()}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release gives up the reservation, returning the resource to Released
// (a no-op from any other state per the transition table).
func (m *Mixin) Release(ctx context.Context) error {
	state, err := m.State(ctx)
	if err != nil {
		return err
	}
	if state != transport.ReservedByYou {
		return nil
	}
	return m.Transport.Release(ctx, m.Resource, m.SessionID)
}

// Relinquish forces a ReservedByOther resource back to Released without
// taking it.
func (m *Mixin) Relinquish(ctx context.Context) error {
	return m.Transport.Relinquish(ctx, m.Resource)
}
