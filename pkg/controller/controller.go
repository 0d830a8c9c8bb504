// Package controller implements this module's public API surface:
// MainController, the single entry point embedding applications use to add
// testers, enumerate them, obtain a resource-tree view scoped to a calling
// session, and subscribe to change notifications — the thing that owns
// every subsystem and exposes a small public surface over it, as a
// long-lived multi-tester session registry.
package controller

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openimpair/controlplane/pkg/notify"
	"github.com/openimpair/controlplane/pkg/resource"
	"github.com/openimpair/controlplane/pkg/store"
	"github.com/openimpair/controlplane/pkg/telemetry"
	"github.com/openimpair/controlplane/pkg/transport"
)

// Dial opens a Transport for the given credentials. The concrete
// implementation (in-memory simulator, Docker-backed sandbox, or a real
// chassis driver) is supplied by the caller of New — MainController itself
// is transport-agnostic, treating the wire protocol as an external
// collaborator.
type Dial func(ctx context.Context, creds Credentials) (transport.Transport, error)

// TesterInfo is what ListTesters returns for one registered tester.
type TesterInfo struct {
	ID          string
	Credentials Credentials
	AddedAt     time.Time
	LastSeenAt  time.Time
}

type testerEntry struct {
	id        string
	creds     Credentials
	transport transport.Transport
	addedAt   time.Time
}

// MainController is this module's public API surface: addTester, removeTester,
// listTesters, useTester, listenChanges.
type MainController struct {
	dial  Dial
	store *store.Store
	bus   *notify.Bus
	log   *telemetry.Logger

	mu      sync.Mutex
	testers map[string]*testerEntry
}

// New builds a MainController. dial opens transports for newly added
// testers; st persists tester credentials across restarts; bus fans out
// resource/statistics change notifications; log may be nil, in which case a
// no-output logger is used.
func New(dial Dial, st *store.Store, bus *notify.Bus, log *telemetry.Logger) *MainController {
	if log == nil {
		log = telemetry.New(telemetry.Config{Level: telemetry.LevelError, Output: io.Discard})
	}
	return &MainController{
		dial:    dial,
		store:   st,
		bus:     bus,
		log:     log,
		testers: make(map[string]*testerEntry),
	}
}

// Restore repopulates the in-memory tester registry from the persisted
// store without dialing transports, so listTesters reflects testers added
// in a previous process before the first addTester/useTester of this run
// re-establishes their connection. Connections are established lazily on
// the next useTester call (see resolveTransport).
func (c *MainController) Restore() error {
	records, err := c.store.List()
	if err != nil {
		return fmt.Errorf("controller: restore: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if _, ok := c.testers[rec.TesterID]; ok {
			continue
		}
		c.testers[rec.TesterID] = &testerEntry{
			id:      rec.TesterID,
			creds:   credentialsFromStore(rec.Credentials),
			addedAt: rec.AddedAt,
		}
	}
	return nil
}

// AddTester dials creds, registers the resulting tester under a generated
// ID, and persists its credentials so it survives a restart.
func (c *MainController) AddTester(ctx context.Context, creds Credentials) (string, error) {
	t, err := c.dial(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("controller: dial %s: %w", creds, err)
	}

	id := uuid.NewString()
	now := time.Now()

	c.mu.Lock()
	c.testers[id] = &testerEntry{id: id, creds: creds, transport: t, addedAt: now}
	c.mu.Unlock()

	if err := c.store.Save(store.Record{
		TesterID:    id,
		Credentials: creds.toStoreRecord(),
		AddedAt:     now,
		LastSeenAt:  now,
	}); err != nil {
		c.log.Warn("failed to persist tester record", "testerId", id, "error", err)
	}

	c.publish(notify.Changed, id)
	c.log.Info("tester added", "testerId", id, "credentials", creds.String())
	return id, nil
}

// RemoveTester closes the tester's transport (if connected), deletes its
// persisted record, and drops it from the registry.
func (c *MainController) RemoveTester(testerID string) error {
	c.mu.Lock()
	entry, ok := c.testers[testerID]
	delete(c.testers, testerID)
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("controller: unknown tester %s", testerID)
	}

	var closeErr error
	if entry.transport != nil {
		closeErr = entry.transport.Close()
	}
	if err := c.store.Delete(testerID); err != nil {
		c.log.Warn("failed to delete persisted tester record", "testerId", testerID, "error", err)
	}

	c.publish(notify.Removed, testerID)
	c.log.Info("tester removed", "testerId", testerID)
	return closeErr
}

// ListTesters returns every registered tester.
func (c *MainController) ListTesters() []TesterInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]TesterInfo, 0, len(c.testers))
	for _, entry := range c.testers {
		rec, ok, _ := c.store.Load(entry.id)
		info := TesterInfo{ID: entry.id, Credentials: entry.creds, AddedAt: entry.addedAt}
		if ok {
			info.LastSeenAt = rec.LastSeenAt
		}
		infos = append(infos, info)
	}
	return infos
}

// UseTester returns a resource-tree view for testerID scoped to username as
// the reservation session identity, optionally reserving the tester itself.
// Each call returns a fresh *resource.TesterManager: reservation identity is
// per (tester, username), so two different usernames calling useTester on
// the same tester must not share one cached manager and its sessionID (see
// DESIGN.md). Descending
// through the returned manager (useModule/usePort/...) still lazily caches
// within that manager's own lifetime.
func (c *MainController) UseTester(ctx context.Context, testerID, username string, reserve, debug bool) (*resource.TesterManager, error) {
	t, err := c.resolveTransport(ctx, testerID)
	if err != nil {
		return nil, err
	}

	if err := c.store.Touch(testerID, time.Now()); err != nil {
		c.log.Warn("failed to update last-seen", "testerId", testerID, "error", err)
	}

	mgr := resource.NewTester(t, testerID, username)
	if debug {
		c.log.Debug("useTester", "testerId", testerID, "username", username, "reserve", reserve)
	}

	if reserve {
		if err := mgr.Reserve(ctx, false, nil); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}

// resolveTransport dials a tester restored from the store (see Restore)
// that has not yet had a transport established this process.
func (c *MainController) resolveTransport(ctx context.Context, testerID string) (transport.Transport, error) {
	c.mu.Lock()
	entry, ok := c.testers[testerID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("controller: unknown tester %s", testerID)
	}
	if entry.transport != nil {
		return entry.transport, nil
	}

	t, err := c.dial(ctx, entry.creds)
	if err != nil {
		return nil, fmt.Errorf("controller: dial %s: %w", entry.creds, err)
	}

	c.mu.Lock()
	entry.transport = t
	c.mu.Unlock()
	return t, nil
}

// ListenChanges subscribes to one of the notification bus's pipes; this
// overload takes a single pipe name, since pkg/notify.Bus's pipes are
// independent streams rather than a single merged one.
func (c *MainController) ListenChanges(ctx context.Context, pipe string, filter notify.Filter) (<-chan notify.Message, func(), error) {
	return c.bus.ListenChanges(ctx, pipe, filter)
}

func (c *MainController) publish(kind notify.ChangeType, testerID string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(notify.Message{
		Pipe:    "testers",
		Type:    kind,
		Payload: map[string]any{"testerId": testerID},
	})
}
