package collab

import (
	"context"
	"time"

	"github.com/syncpad/syncpad/internal/config"
	"github.com/syncpad/syncpad/internal/document"
	"github.com/syncpad/syncpad/internal/presence"
	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/internal/room"
	"github.com/syncpad/syncpad/internal/store"
	"github.com/syncpad/syncpad/pkg/logger"
)

// Engine composes the collaboration components around one registry: the room
// hub, presence tracker, change relay and persistence scheduler. The REST
// layer shares the same registry, so administrative mutations (invites,
// deletes) are observed by live sessions immediately.
type Engine struct {
	reg     *registry.Registry
	hub     *room.Hub
	tracker *presence.Tracker
	relay   *Relay
	sched   *Scheduler

	sendBuffer int
}

func NewEngine(reg *registry.Registry, st store.Store, cfg config.CollabConfig) *Engine {
	hub := room.NewHub()
	e := &Engine{
		reg:        reg,
		hub:        hub,
		tracker:    presence.NewTracker(hub, cfg.PresenceDebounce),
		relay:      NewRelay(reg, hub),
		sched:      NewScheduler(reg, st, cfg.SaveInterval),
		sendBuffer: cfg.SendBuffer,
	}

	// deletion force-disconnects the whole room and purges the durable
	// snapshot; individual sessions observe their connection closing and walk
	// through Closing themselves
	reg.OnDelete(func(docID string) {
		hub.CloseDocument(docID, room.Envelope{Event: room.EventDocumentDeleted})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.sched.Purge(ctx, docID); err != nil {
			logger.Warnf("engine: could not purge snapshot for deleted document %s: %v", docID, err)
		}
	})
	// membership changes re-announce the role to the target's live sessions
	reg.OnMembershipChange(func(docID, identity string, role document.Role) {
		hub.SendToIdentity(docID, identity, room.Envelope{Event: room.EventRoleUpdate, Data: string(role)})
	})
	return e
}

// NewSession creates a coordinator in Connecting for an already-identified
// connection. The caller attaches it to a document once the client asks.
func (e *Engine) NewSession(identity string) *Session {
	return &Session{
		engine: e,
		conn:   room.NewConn(identity, e.sendBuffer),
		state:  StateConnecting,
		stop:   make(chan struct{}),
	}
}

func (e *Engine) Registry() *registry.Registry { return e.reg }
func (e *Engine) Hub() *room.Hub               { return e.hub }
func (e *Engine) Presence() *presence.Tracker  { return e.tracker }

// Shutdown cancels pending presence timers. Active sessions are torn down by
// their own transport closures.
func (e *Engine) Shutdown() {
	e.tracker.Stop()
}
