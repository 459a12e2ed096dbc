package collab

import (
	"encoding/json"

	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/internal/room"
	"github.com/syncpad/syncpad/pkg/logger"
	"github.com/syncpad/syncpad/pkg/metrics"
)

// Relay routes change deltas between the participants of a document room.
// The delta payload is opaque: it is forwarded as received, never parsed or
// transformed.
type Relay struct {
	reg *registry.Registry
	hub *room.Hub
}

func NewRelay(reg *registry.Registry, hub *room.Hub) *Relay {
	return &Relay{reg: reg, hub: hub}
}

// Submit forwards delta to every other connection in the document's room.
// The sender's role is re-resolved on every call; viewer and none submissions
// are silently dropped. That is policy, not a transport failure, so no error
// reaches the sender.
func (r *Relay) Submit(docID, identity, senderConnID string, delta json.RawMessage) {
	role, err := r.reg.Resolve(docID, identity)
	if err != nil {
		// document deleted while the delta was in flight
		metrics.DeltasDropped.WithLabelValues("not_found").Inc()
		return
	}
	if !role.CanEdit() {
		logger.Debugf("relay: dropped delta from %s on %s (role=%s)", identity, docID, role)
		metrics.DeltasDropped.WithLabelValues("role").Inc()
		return
	}
	r.hub.BroadcastExcept(docID, senderConnID, room.Envelope{Event: room.EventReceiveChanges, Data: delta})
	metrics.DeltasRelayed.Inc()
}
