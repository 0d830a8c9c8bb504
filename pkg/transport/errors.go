package transport

import (
	"errors"
	"fmt"
)

// ErrNotValid is the transport-level sentinel for "this field has never
// been set on this side of the shadow/working register pair". It is never
// surfaced to callers of the impairment/filter managers —
// they filter it out while folding parallel Get results — but it is public
// so a custom Transport implementation can return it with errors.Is.
var ErrNotValid = errors.New("transport: field not valid")

// TransportError wraps a connection/protocol failure. It is fatal to the
// enclosing operation.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ReservationTimeoutError is returned when a relinquish-then-reserve loop
// never observes Released before its ceiling elapses.
type ReservationTimeoutError struct {
	Resource ResourceRef
	Waited   string
}

func (e *ReservationTimeoutError) Error() string {
	return fmt.Sprintf("reservation: timed out waiting for %s to release after %s", e.Resource, e.Waited)
}

// AggregateError carries the per-token outcome of a batched Apply call. A
// Set-mode Apply returns one as soon as the first token fails, wrapping only
// that failure plus how many tokens preceded it; a Get-mode Apply never
// returns one from Apply itself (callers inspect BatchResult instead) but
// the type is shared so both paths can present results uniformly when that
// is useful (e.g. logging).
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %v", len(e.Errs), e.Errs[0])
}

func (e *AggregateError) Unwrap() []error { return e.Errs }

// Sentinel errors used internally by Transport implementations in this
// package (Simulator, Sandbox) to build TransportError values.
var (
	errMixedBatch = errors.New("apply: batch mixes get and set tokens")
	errUnknownToken = errors.New("apply: unrecognized token type")
	errReservedByOther = errors.New("resource is reserved by another session")
)
