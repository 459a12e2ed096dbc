package room

import (
	"sort"
	"sync"
)

// Hub indexes active connections by document id. Rooms are ephemeral and
// derived: created on first join, dropped on last leave, never persisted.
// Join and Leave are the only mutators, so presence is a pure projection
// over this state.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Conn // docID -> connID -> conn
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Conn)}
}

func (h *Hub) Join(docID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[docID]
	if !ok {
		r = make(map[string]*Conn)
		h.rooms[docID] = r
	}
	r[c.ID()] = c
}

func (h *Hub) Leave(docID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[docID]
	if !ok {
		return
	}
	delete(r, connID)
	if len(r) == 0 {
		delete(h.rooms, docID)
	}
}

// Broadcast delivers e to every connection in the room.
func (h *Hub) Broadcast(docID string, e Envelope) {
	for _, c := range h.snapshot(docID) {
		c.Send(e)
	}
}

// BroadcastExcept delivers e to every connection except exceptID (the
// sender). Per-sender FIFO holds because each submission fans out to the
// recipients' queues before the sender's next submission is processed.
func (h *Hub) BroadcastExcept(docID, exceptID string, e Envelope) {
	for _, c := range h.snapshot(docID) {
		if c.ID() != exceptID {
			c.Send(e)
		}
	}
}

// SendToIdentity delivers e to every connection the identity holds in the
// room (one user may have several tabs open).
func (h *Hub) SendToIdentity(docID, identity string, e Envelope) {
	for _, c := range h.snapshot(docID) {
		if c.Identity() == identity {
			c.Send(e)
		}
	}
}

// Identities returns the de-duplicated, sorted identity set of the room.
func (h *Hub) Identities(docID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range h.rooms[docID] {
		seen[c.Identity()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CloseDocument force-disconnects the whole room: the notice is queued to
// every member, then every connection is closed and the room dropped. Used
// when a document is deleted.
func (h *Hub) CloseDocument(docID string, notice Envelope) {
	h.mu.Lock()
	r := h.rooms[docID]
	delete(h.rooms, docID)
	h.mu.Unlock()
	for _, c := range r {
		c.Send(notice)
		c.Close()
	}
}

// Connections reports the total number of active connections across rooms.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, r := range h.rooms {
		n += len(r)
	}
	return n
}

// snapshot copies the room's connection list so sends happen outside the
// hub lock; a slow consumer closing mid-iteration cannot deadlock the hub.
func (h *Hub) snapshot(docID string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r := h.rooms[docID]
	out := make([]*Conn, 0, len(r))
	for _, c := range r {
		out = append(out, c)
	}
	return out
}
