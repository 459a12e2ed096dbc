package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/syncpad/syncpad/internal/document"
	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/internal/room"
	"github.com/syncpad/syncpad/pkg/logger"
	"github.com/syncpad/syncpad/pkg/metrics"
)

// State is the session coordinator's lifecycle position.
type State int

const (
	StateConnecting State = iota
	StateAuthorizing
	StateActive
	StateClosing
	StateClosed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateDenied:
		return "denied"
	}
	return "unknown"
}

var (
	// ErrNotAttachable is returned when Attach is called outside Connecting.
	ErrNotAttachable = errors.New("session cannot attach in its current state")
)

// Session coordinates one connection's collaboration lifecycle:
// Connecting → Authorizing → Active → Closing → Closed, with Denied as the
// terminal outcome of a failed authorization. It wires the connection into
// the registry, presence tracker, relay and persistence scheduler on attach
// and tears everything down on close. Teardown touches only this session's
// own timer and membership.
type Session struct {
	engine *Engine
	conn   *room.Conn

	mu      sync.Mutex
	state   State
	docID   string
	pending *string // latest unsaved snapshot content

	stop     chan struct{}
	stopOnce sync.Once
}

// Conn exposes the connection handle so the transport layer can drain its
// outbound queue and observe teardown.
func (s *Session) Conn() *room.Conn { return s.conn }

func (s *Session) Identity() string { return s.conn.Identity() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attach authorizes the session against docID and, on any role other than
// none, joins the room, delivers the current snapshot and role once, and
// starts the persistence loop. On role none the session emits access-denied
// and terminates: the client can distinguish this from a transient failure.
func (s *Session) Attach(docID string) error {
	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		return ErrNotAttachable
	}
	s.state = StateAuthorizing
	s.mu.Unlock()

	doc := s.engine.reg.FindOrCreate(docID, s.conn.Identity())
	if doc.Data == "" {
		// first open since startup: warm from the durable store
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		content, err := s.engine.sched.Load(ctx, docID)
		cancel()
		if err != nil {
			logger.Warnf("session %s: could not load persisted snapshot for %s: %v", s.conn.ID(), docID, err)
		} else if content != "" {
			_ = s.engine.reg.SetData(docID, content)
			doc.Data = content
		}
	}

	role := document.Resolve(doc, s.conn.Identity())
	if role == document.RoleNone {
		s.conn.Send(room.Envelope{Event: room.EventAccessDenied})
		s.mu.Lock()
		s.state = StateDenied
		s.mu.Unlock()
		s.conn.Close()
		metrics.AccessDenied.WithLabelValues("ws").Inc()
		return registry.ErrAccessDenied
	}

	s.mu.Lock()
	s.docID = docID
	s.state = StateActive
	s.mu.Unlock()

	s.engine.hub.Join(docID, s.conn)
	s.conn.Send(room.Envelope{Event: room.EventLoadDocument, Data: doc.Data})
	s.conn.Send(room.Envelope{Event: room.EventRoleUpdate, Data: string(role)})
	s.engine.tracker.Join(docID, s.conn.Identity())

	go s.saveLoop()
	go s.watchDisconnect()
	metrics.ActiveConnections.Inc()
	logger.Debugf("session %s: %s attached to %s as %s", s.conn.ID(), s.conn.Identity(), docID, role)
	return nil
}

// SubmitDelta hands an inbound change delta to the relay. Ignored outside
// Active.
func (s *Session) SubmitDelta(delta json.RawMessage) {
	s.mu.Lock()
	active := s.state == StateActive
	docID := s.docID
	s.mu.Unlock()
	if !active {
		return
	}
	s.engine.relay.Submit(docID, s.conn.Identity(), s.conn.ID(), delta)
}

// SubmitSnapshot records the latest full content from the editing widget.
// The persistence loop flushes it on the next tick; intermediate snapshots
// between ticks are superseded, last write wins.
func (s *Session) SubmitSnapshot(content string) {
	s.mu.Lock()
	if s.state == StateActive {
		s.pending = &content
	}
	s.mu.Unlock()
}

// Close transitions Active → Closing → Closed: leaves the room, schedules the
// debounced presence departure, and cancels this session's persistence loop.
// Idempotent, and safe to call from any state.
func (s *Session) Close() {
	s.mu.Lock()
	switch s.state {
	case StateClosing, StateClosed, StateDenied:
		s.mu.Unlock()
		return
	case StateConnecting, StateAuthorizing:
		s.state = StateClosed
		s.mu.Unlock()
		s.conn.Close()
		return
	}
	s.state = StateClosing
	docID := s.docID
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })
	s.engine.hub.Leave(docID, s.conn.ID())
	s.engine.tracker.Leave(docID, s.conn.Identity())
	s.conn.Close()

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	metrics.ActiveConnections.Dec()
	logger.Debugf("session %s: closed (doc %s)", s.conn.ID(), docID)
}

// saveLoop flushes the pending snapshot on the persistence cadence until the
// session ends. A slow store write here never touches other sessions: the
// loop is per-connection and the relay path does not pass through it.
func (s *Session) saveLoop() {
	ticker := time.NewTicker(s.engine.sched.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-s.conn.Done():
			return
		case <-ticker.C:
			s.flush()
		}
	}
}

func (s *Session) flush() {
	s.mu.Lock()
	content := s.pending
	s.pending = nil
	docID := s.docID
	s.mu.Unlock()
	if content == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.engine.sched.Snapshot(ctx, docID, s.conn.Identity(), *content); err != nil {
		logger.Warnf("session %s: snapshot of %s failed: %v", s.conn.ID(), docID, err)
		s.conn.Send(room.Envelope{Event: room.EventSaveError, Data: err.Error()})
		// keep the content for the next tick unless something newer arrived
		s.mu.Lock()
		if s.pending == nil && s.state == StateActive {
			s.pending = content
		}
		s.mu.Unlock()
	}
}

// watchDisconnect turns a transport-level close, including the forced
// disconnect broadcast on document deletion, into an orderly teardown.
func (s *Session) watchDisconnect() {
	<-s.conn.Done()
	s.Close()
}
