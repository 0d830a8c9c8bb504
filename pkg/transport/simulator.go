package transport

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Simulator is an in-memory Transport used by this module's own tests and
// by local development. It models the shadow/working register pair: a Set
// writes to the shadow map; a field is only readable via Get once it has
// been written at least once (unwritten fields return ErrNotValid, matching
// the device's partial-response protocol). It stands in for a real chassis
// connection in tests by recording what would have been applied instead of
// touching any hardware.
type Simulator struct {
	mu sync.Mutex

	shadow  map[string]storedField
	working map[string]storedField

	reservations map[string]reservationEntry

	subs   []chan Event
	closed bool
}

type storedField struct {
	fields map[string]any
	setAt  time.Time
}

// reservationEntry names the session currently holding a resource.
// ReservedByYou/ReservedByOther are not stored directly — they are always
// relative to the session asking, so they are derived at query time by
// comparing against sessionID.
type reservationEntry struct {
	sessionID string
}

// NewSimulator creates an empty simulated chassis connection.
func NewSimulator() *Simulator {
	return &Simulator{
		shadow:       make(map[string]storedField),
		working:      make(map[string]storedField),
		reservations: make(map[string]reservationEntry),
	}
}

func key(ref ResourceRef, path string) string {
	return ref.String() + "#" + path
}

func (s *Simulator) Get(ctx context.Context, tok GetToken) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(tok.Resource, tok.Path)
	f, ok := s.working[k]
	if !ok {
		return Response{}, ErrNotValid
	}
	return Response{Path: tok.Path, Fields: f.fields, SetAt: f.setAt}, nil
}

// GetShadow reads the shadow-side value of a field, used by shadow-filter
// cancel() semantics (working -> shadow) and by tests asserting pre-apply
// state. It is not part of the Transport interface because the real wire
// protocol has no such read (only apply/cancel move data between sides).
func (s *Simulator) GetShadow(ref ResourceRef, path string) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.shadow[key(ref, path)]
	if !ok {
		return Response{}, false
	}
	return Response{Path: path, Fields: f.fields, SetAt: f.setAt}, true
}

func (s *Simulator) Set(ctx context.Context, tok SetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tok.Resource, tok.Path)
	f := storedField{fields: tok.Params, setAt: time.Now()}
	s.shadow[k] = f
	if !isShadowGated(tok.Path) {
		s.working[k] = f
	}
	return nil
}

// isShadowGated reports whether path addresses a field inside the
// shadow-filter classifier tree (basic- or extended-mode sub-filters),
// which alone keeps writes pending in shadow until an explicit
// ShadowFilterManager.Apply. The filter's own
// clear/mode-select/enable/disable commands, and every other impairment/
// schedule/enable/policer/shaper/port/module/flow field, are written
// through to working immediately on Set — the device applies those without
// a separate commit step.
func isShadowGated(path string) bool {
	return strings.Contains(path, "/filter/basic/") || strings.Contains(path, "/filter/extended/")
}

// ApplyShadow promotes every shadow entry under a resource to working,
// implementing the shadow/working register pair for callers that need
// it outside of the impairment manager's own command-token batches — the
// shadow-filter manager's apply()/cancel() use this directly since those
// operate on the whole filter tree at once rather than per-field tokens.
func (s *Simulator) ApplyShadow(ref ResourceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := ref.String() + "#"
	for k, v := range s.shadow {
		if hasPrefix(k, prefix) {
			s.working[k] = v
		}
	}
}

// CancelShadow discards shadow state for a resource, reloading it from
// working (shadow-filter cancel()).
func (s *Simulator) CancelShadow(ref ResourceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := ref.String() + "#"
	for k := range s.shadow {
		if hasPrefix(k, prefix) {
			delete(s.shadow, k)
		}
	}
	for k, v := range s.working {
		if hasPrefix(k, prefix) {
			s.shadow[k] = v
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (s *Simulator) Apply(ctx context.Context, toks ...Token) (*BatchResult, error) {
	setMode, mixed := IsSetMode(toks)
	if mixed {
		return nil, &TransportError{Op: "apply", Cause: errMixedBatch}
	}

	exec := func(ctx context.Context, tok Token) (Response, error) {
		switch t := tok.(type) {
		case SetToken:
			return Response{}, s.Set(ctx, t)
		case GetToken:
			return s.Get(ctx, t)
		default:
			return Response{}, errUnknownToken
		}
	}

	if setMode {
		// s.Set (called via exec) already promotes non-shadow-gated paths
		// to working immediately; shadow-filter paths stay shadow-only
		// until ShadowFilterManager.apply() calls ApplyShadow.
		if err := RunSetBatch(ctx, exec, toks); err != nil {
			return nil, err
		}
		return &BatchResult{}, nil
	}

	return RunGetBatch(ctx, exec, toks), nil
}

func (s *Simulator) Reserve(ctx context.Context, target ResourceRef, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := target.String()
	entry, ok := s.reservations[k]
	if ok && entry.sessionID != sessionID {
		return &TransportError{Op: "reserve", Cause: errReservedByOther}
	}
	s.reservations[k] = reservationEntry{sessionID: sessionID}
	return nil
}

func (s *Simulator) Release(ctx context.Context, target ResourceRef, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, target.String())
	return nil
}

func (s *Simulator) Relinquish(ctx context.Context, target ResourceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, target.String())
	return nil
}

func (s *Simulator) ReservationState(ctx context.Context, target ResourceRef, sessionID string) (ReservationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.reservations[target.String()]
	if !ok {
		return Released, nil
	}
	if entry.sessionID == sessionID {
		return ReservedByYou, nil
	}
	return ReservedByOther, nil
}

// ForceReservedByOther is a test helper simulating another client holding a
// reservation ahead of this session's Reserve call.
func (s *Simulator) ForceReservedByOther(target ResourceRef, otherSessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[target.String()] = reservationEntry{sessionID: otherSessionID}
}

func (s *Simulator) Subscribe(ctx context.Context, kinds ...EventKind) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, 16)
	s.subs = append(s.subs, ch)
	return ch, nil
}

func (s *Simulator) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	return nil
}
