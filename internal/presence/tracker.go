package presence

import (
	"sync"
	"time"

	"github.com/syncpad/syncpad/internal/room"
	"github.com/syncpad/syncpad/pkg/metrics"
)

// Tracker recomputes and broadcasts a room's presence set. Joins broadcast
// immediately; departures are held for a debounce window so a tab reload does
// not make the identity blink out of the set. The pending departure is a
// cancellable timer keyed by (document, identity): a rejoin inside the window
// cancels it deterministically instead of racing a bare delayed callback.
type Tracker struct {
	hub      *room.Hub
	debounce time.Duration

	mu      sync.Mutex
	pending map[pendingKey]*time.Timer
}

type pendingKey struct {
	docID    string
	identity string
}

func NewTracker(hub *room.Hub, debounce time.Duration) *Tracker {
	return &Tracker{
		hub:      hub,
		debounce: debounce,
		pending:  make(map[pendingKey]*time.Timer),
	}
}

// Join supersedes any pending departure for the identity and broadcasts the
// updated presence set to the room. The connection itself must already be in
// the hub.
func (t *Tracker) Join(docID, identity string) {
	k := pendingKey{docID, identity}
	t.mu.Lock()
	if timer, ok := t.pending[k]; ok {
		timer.Stop()
		delete(t.pending, k)
	}
	t.mu.Unlock()
	t.broadcast(docID)
}

// Leave schedules a presence recomputation after the debounce window. The
// connection has already left the hub; only the announcement is delayed.
func (t *Tracker) Leave(docID, identity string) {
	k := pendingKey{docID, identity}
	t.mu.Lock()
	if timer, ok := t.pending[k]; ok {
		timer.Stop()
	}
	t.pending[k] = time.AfterFunc(t.debounce, func() {
		t.mu.Lock()
		delete(t.pending, k)
		t.mu.Unlock()
		t.broadcast(docID)
	})
	t.mu.Unlock()
}

// Current returns the de-duplicated identity set with at least one active
// connection in the room.
func (t *Tracker) Current(docID string) []string {
	return t.hub.Identities(docID)
}

// Stop cancels all pending departure timers. Used on shutdown.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, timer := range t.pending {
		timer.Stop()
		delete(t.pending, k)
	}
}

func (t *Tracker) broadcast(docID string) {
	users := t.hub.Identities(docID)
	if len(users) == 0 {
		return
	}
	t.hub.Broadcast(docID, room.Envelope{Event: room.EventActiveUsers, Data: users})
	metrics.PresenceBroadcasts.Inc()
}
