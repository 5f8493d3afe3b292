package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/haxii/h1/servertime"
	"github.com/haxii/log/v2"
)

const (
	// DefaultMaxConnsPerHost is the maximum number of concurrent connections
	// http client may establish per host by default (i.e. if
	// ConnManager.MaxConns isn't set).
	DefaultMaxConnsPerHost = 512

	// DefaultMaxIdleConnDuration is the default duration before idle keep-alive
	// connection is closed.
	DefaultMaxIdleConnDuration = 10 * time.Second
)

// Pool takes back ownership of a leased connection at the end of an
// exchange: Release puts a still-healthy keep-alive connection on the
// reuse path, Close puts it on the discard path. Reuse eligibility and
// eviction afterwards are entirely the pool's business.
type Pool interface {
	Release(conn net.Conn, acquiredAt time.Time)
	Close(conn net.Conn)
}

var (
	// ErrNoFreeConns is returned when no free connections available
	// to the given host.
	//
	// Increase the allowed number of connections per host if you
	// see this error.
	ErrNoFreeConns = errors.New("no free connections available to host")
)

// NewConn returns an established connection
type NewConn func() (net.Conn, error)

// ConnManager manages a pool of keep-alive connections to one host.
//
// Every connection handed out by AcquireConn must come back through
// exactly one of Release or Close, otherwise the connection count
// leaks. The exchange driver guarantees this on all of its exit paths.
type ConnManager struct {
	// Maximum number of connections which may be established to the host.
	//
	// DefaultMaxConnsPerHost is used if not set.
	MaxConns int

	// Idle keep-alive connections are closed after this duration.
	//
	// By default idle connections are closed
	// after DefaultMaxIdleConnDuration.
	MaxIdleConnDuration time.Duration

	connsLock  sync.Mutex
	connsCount int
	conns      []*idleConn

	connsCleanerRun bool
}

// AcquireConn take an idle connection or dial a fresh one, returning
// the connection together with its creation timestamp
func (c *ConnManager) AcquireConn(dialer NewConn) (net.Conn, time.Time, error) {
	var ic *idleConn
	createConn := false
	startCleaner := false

	var n int
	c.connsLock.Lock()
	n = len(c.conns)
	if n == 0 {
		maxConns := c.MaxConns
		if maxConns <= 0 {
			maxConns = DefaultMaxConnsPerHost
		}
		if c.connsCount < maxConns {
			c.connsCount++
			createConn = true
			if !c.connsCleanerRun {
				startCleaner = true
				c.connsCleanerRun = true
			}
		}
	} else {
		n--
		ic = c.conns[n]
		c.conns[n] = nil
		c.conns = c.conns[:n]
	}
	c.connsLock.Unlock()

	if ic != nil {
		conn, createdTime := ic.c, ic.createdTime
		releaseIdleConn(ic)
		return conn, createdTime, nil
	}
	if !createConn {
		return nil, time.Time{}, ErrNoFreeConns
	}

	if startCleaner {
		go c.connsCleaner()
	}

	conn, err := dialer()
	if err != nil {
		c.decConnsCount()
		return nil, time.Time{}, err
	}

	return conn, servertime.CoarseTimeNow(), nil
}

// Close surrender the connection to the discard path
func (c *ConnManager) Close(conn net.Conn) {
	c.decConnsCount()
	conn.Close()
}

// Release surrender the connection to the reuse path, connections the
// remote end already closed are discarded instead
func (c *ConnManager) Release(conn net.Conn, acquiredAt time.Time) {
	go func() { // release the connection in new go routine cause of the probe delay
		if c.isConnClosedByRemote(conn, 10*time.Microsecond) {
			c.Close(conn)
			return
		}
		ic := acquireIdleConn(conn, acquiredAt)
		ic.lastUseTime = servertime.CoarseTimeNow()
		c.connsLock.Lock()
		c.conns = append(c.conns, ic)
		c.connsLock.Unlock()
	}()
}

func (c *ConnManager) decConnsCount() {
	c.connsLock.Lock()
	c.connsCount--
	c.connsLock.Unlock()
}

func (c *ConnManager) isConnClosedByRemote(conn net.Conn, delay time.Duration) bool {
	one := []byte{'1'}
	conn.SetReadDeadline(time.Now().Add(delay))
	if _, err := conn.Read(one); err == io.EOF {
		return true
	}
	var zero time.Time
	conn.SetReadDeadline(zero)
	return false
}

func (c *ConnManager) connsCleaner() {
	maxIdleConnDuration := c.MaxIdleConnDuration
	if maxIdleConnDuration <= 0 {
		maxIdleConnDuration = DefaultMaxIdleConnDuration
	}

	var scratch []*idleConn
	for {
		currentTime := time.Now()

		// Determine idle connections to be closed.
		c.connsLock.Lock()
		conns := c.conns
		n := len(conns)
		i := 0
		for i < n && currentTime.Sub(conns[i].lastUseTime) > maxIdleConnDuration {
			i++
		}
		scratch = append(scratch[:0], conns[:i]...)
		if i > 0 {
			m := copy(conns, conns[i:])
			for i = m; i < n; i++ {
				conns[i] = nil
			}
			c.conns = conns[:m]
		}
		c.connsLock.Unlock()

		// Close idle connections.
		if len(scratch) > 0 {
			log.Debugf("closing %d idle connections", len(scratch))
		}
		for i, ic := range scratch {
			c.Close(ic.c)
			releaseIdleConn(ic)
			scratch[i] = nil
		}

		// Determine whether to stop the connsCleaner.
		c.connsLock.Lock()
		mustStop := c.connsCount == 0
		if mustStop {
			c.connsCleanerRun = false
		}
		c.connsLock.Unlock()
		if mustStop {
			break
		}

		time.Sleep(maxIdleConnDuration)
	}
}

// idleConn a parked keep-alive connection waiting for reuse
type idleConn struct {
	c net.Conn

	createdTime time.Time
	lastUseTime time.Time
}

var idleConnPool sync.Pool

func acquireIdleConn(conn net.Conn, createdTime time.Time) *idleConn {
	v := idleConnPool.Get()
	if v == nil {
		v = &idleConn{}
	}
	ic := v.(*idleConn)
	ic.c = conn
	ic.createdTime = createdTime
	return ic
}

func releaseIdleConn(ic *idleConn) {
	ic.c = nil
	idleConnPool.Put(ic)
}
