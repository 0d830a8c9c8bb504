// Package transport defines the Go-level contract the rest of this module
// programs against for talking to a chassis. The binary wire protocol itself
// is an external collaborator; this package only fixes the shape of the
// typed get/set/apply primitives described in prose elsewhere.
package transport

import (
	"context"
	"fmt"
	"time"
)

// ResourceKind identifies the level of the resource hierarchy a ResourceRef
// points at.
type ResourceKind string

const (
	KindTester ResourceKind = "tester"
	KindModule ResourceKind = "module"
	KindPort   ResourceKind = "port"
)

// ResourceRef addresses one node in the Tester/Module/Port hierarchy.
type ResourceRef struct {
	Kind     ResourceKind
	TesterID string
	ModuleID int
	PortID   int
}

func (r ResourceRef) String() string {
	switch r.Kind {
	case KindTester:
		return fmt.Sprintf("tester:%s", r.TesterID)
	case KindModule:
		return fmt.Sprintf("tester:%s/module:%d", r.TesterID, r.ModuleID)
	case KindPort:
		return fmt.Sprintf("tester:%s/module:%d/port:%d", r.TesterID, r.ModuleID, r.PortID)
	default:
		return fmt.Sprintf("unknown:%+v", r)
	}
}

// Token is a single typed command directed at one field of one resource.
// GetToken and SetToken both implement it; Apply accepts a mix of either.
type Token interface {
	token()
	// Addr identifies the field this token addresses, e.g.
	// "port:0/flow:3/drop/distribution/fixedBurst" — used only for logging
	// and for correlating responses back to callers, never parsed by the
	// transport itself.
	Addr() string
}

// GetToken requests the current value of one field.
type GetToken struct {
	Resource ResourceRef
	Path     string
}

func (GetToken) token() {}
func (t GetToken) Addr() string { return t.Path }

// SetToken writes params to one field.
type SetToken struct {
	Resource ResourceRef
	Path     string
	Params   map[string]any
}

func (SetToken) token() {}
func (t SetToken) Addr() string { return t.Path }

// Response is the value side of a successful Get.
type Response struct {
	Path   string
	Fields map[string]any
	// SetAt is the time the device last accepted a Set for this field, used
	// by the impairment manager to break ties among several non-NotValid
	// distribution responses.
	SetAt time.Time
}

// Event is a change-notification message published over the notification
// bus and also raised natively by some transports (e.g.
// "reservedByChange", "disconnected").
type Event struct {
	Kind    EventKind
	Target  ResourceRef
	Payload map[string]any
}

type EventKind string

const (
	EventReservedByChange EventKind = "reservedByChange"
	EventDisconnected     EventKind = "disconnected"
)

// Transport is the full contract a chassis connection exposes. Two
// implementations ship with this module: an in-memory Simulator for unit
// tests, and a Docker-backed Sandbox for local integration runs against a
// containerized chassis simulator.
type Transport interface {
	Get(ctx context.Context, tok GetToken) (Response, error)
	Set(ctx context.Context, tok SetToken) error

	// Apply issues every token against the device. Set-mode batches (every
	// token a SetToken) are delivered in program order: the first failure
	// aborts the remainder and Apply returns an AggregateError, while tokens
	// delivered before the failure stay applied. Get-mode batches (every token a GetToken) run
	// concurrently and every result — success or error — is captured; Apply
	// never aborts early in this mode. Mixed batches are rejected.
	Apply(ctx context.Context, toks ...Token) (*BatchResult, error)

	Reserve(ctx context.Context, target ResourceRef, sessionID string) error
	Release(ctx context.Context, target ResourceRef, sessionID string) error
	Relinquish(ctx context.Context, target ResourceRef) error
	// ReservationState reports target's reservation state as seen by
	// sessionID: the holder sees ReservedByYou, every other session sees
	// ReservedByOther.
	ReservationState(ctx context.Context, target ResourceRef, sessionID string) (ReservationState, error)

	Subscribe(ctx context.Context, kinds ...EventKind) (<-chan Event, error)

	Close() error
}

// ReservationState mirrors the device's three-state reservation model.
type ReservationState string

const (
	Released        ReservationState = "released"
	ReservedByYou   ReservationState = "reservedByYou"
	ReservedByOther ReservationState = "reservedByOther"
)
