package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrConnClosed   = errors.New("realtime: connection closed")
	ErrSlowConsumer = errors.New("realtime: outbound buffer full")
)

const outboundBuffer = 16

// Conn is one open stream handle: a write-once-per-message sink bound to a
// single underlying network stream. A user may own many Conns (one per tab).
type Conn struct {
	ID     uuid.UUID
	UserID uuid.UUID

	outbound  chan Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(userID uuid.UUID) *Conn {
	return &Conn{
		ID:       uuid.New(),
		UserID:   userID,
		outbound: make(chan Envelope, outboundBuffer),
		done:     make(chan struct{}),
	}
}

// Send enqueues an envelope for the stream writer. It fails when the
// connection is closed or the consumer stopped draining its buffer; either
// way the caller must treat the handle as dead.
func (c *Conn) Send(env Envelope) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.outbound <- env:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSlowConsumer
	}
}

// Outbound is drained by the stream endpoint only.
func (c *Conn) Outbound() <-chan Envelope { return c.outbound }

// Done is closed exactly once, on teardown.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
