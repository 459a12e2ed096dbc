package room

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Conn is one live connection's handle inside a room: an identity plus a
// bounded outbound queue. The transport layer drains Out; the engine writes
// through Send. Delivery is at-most-once: a queue that cannot accept a
// message costs the connection its membership rather than stalling the room.
type Conn struct {
	id       string
	identity string

	out  chan Envelope
	done chan struct{}
	once sync.Once
}

func NewConn(identity string, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 256
	}
	return &Conn{
		id:       ulid.Make().String(),
		identity: identity,
		out:      make(chan Envelope, buffer),
		done:     make(chan struct{}),
	}
}

func (c *Conn) ID() string       { return c.id }
func (c *Conn) Identity() string { return c.identity }

// Out is drained by the transport write pump.
func (c *Conn) Out() <-chan Envelope { return c.out }

// Done is closed when the connection is torn down, locally or by a forced
// disconnect.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Send queues an envelope without blocking. A full queue means the consumer
// is not draining; the connection is closed so the rest of the room keeps
// moving.
func (c *Conn) Send(e Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- e:
		return true
	default:
		c.Close()
		return false
	}
}

// Close is idempotent and safe from any goroutine.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })
}
