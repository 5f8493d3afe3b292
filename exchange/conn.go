package exchange

import (
	"net"
	"time"

	"github.com/haxii/h1/transport"
)

// Conn is the live ownership record of a pooled connection for the
// duration of one exchange. It is the only place the transport lives
// while the exchange runs and the sole authority for handing it back:
// exactly one of release or close ever reaches the pool, repeated
// calls are absorbed as no-ops.
type Conn struct {
	// c is nil once the transport has been surrendered
	c          net.Conn
	acquiredAt time.Time
	pool       transport.Pool
}

func newConn(c net.Conn, acquiredAt time.Time, pool transport.Pool) *Conn {
	return &Conn{c: c, acquiredAt: acquiredAt, pool: pool}
}

// transport returns the inner connection, failing fast when the lease
// has already been surrendered: any I/O afterwards is a programming
// error, not a recoverable condition.
func (c *Conn) transport() net.Conn {
	if c.c == nil {
		panic("exchange: I/O on a surrendered connection lease")
	}
	return c.c
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.transport().Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.transport().Write(p)
}

// onRelease hand the transport back to the pool, on the reuse path
// when the exchange left the connection reusable
func (c *Conn) onRelease(keepAlive bool) {
	if keepAlive {
		c.release()
	} else {
		c.close()
	}
}

// close surrender the transport to the pool's discard path, a no-op
// once the transport slot is empty
func (c *Conn) close() {
	if c.c != nil {
		c.pool.Close(c.c)
		c.c = nil
	}
}

// release surrender the transport to the pool's reuse path, a no-op
// once the transport slot is empty
func (c *Conn) release() {
	if c.c != nil {
		c.pool.Release(c.c, c.acquiredAt)
		c.c = nil
	}
}
