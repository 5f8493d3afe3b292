package transport

import (
	"net"
	"testing"
	"time"
)

func pipeDialer(t *testing.T, dials *int) (NewConn, func()) {
	var servers []net.Conn
	dialer := func() (net.Conn, error) {
		*dials++
		client, server := net.Pipe()
		servers = append(servers, server)
		return client, nil
	}
	cleanup := func() {
		for _, s := range servers {
			s.Close()
		}
	}
	return dialer, cleanup
}

func TestConnManagerAcquireRelease(t *testing.T) {
	m := &ConnManager{}
	dials := 0
	dialer, cleanup := pipeDialer(t, &dials)
	defer cleanup()

	conn, createdTime, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if dials != 1 {
		t.Fatalf("unexpected dial count %d", dials)
	}

	m.Release(conn, createdTime)
	//the release probe runs in its own go routine
	time.Sleep(50 * time.Millisecond)

	again, againCreated, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if dials != 1 {
		t.Fatal("a parked connection should be reused instead of dialing")
	}
	if again != conn {
		t.Fatal("unexpected connection handed out")
	}
	if !againCreated.Equal(createdTime) {
		t.Fatalf("creation time should survive parking, got %v expected %v",
			againCreated, createdTime)
	}
	m.Close(again)
}

func TestConnManagerReleaseClosedByRemote(t *testing.T) {
	m := &ConnManager{}
	dials := 0
	var server net.Conn
	dialer := func() (net.Conn, error) {
		dials++
		var client net.Conn
		client, server = net.Pipe()
		return client, nil
	}

	conn, createdTime, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	server.Close()
	m.Release(conn, createdTime)
	time.Sleep(50 * time.Millisecond)

	//the remote-closed connection was discarded, a fresh one is dialed
	again, _, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if dials != 2 {
		t.Fatalf("unexpected dial count %d", dials)
	}
	m.Close(again)
	server.Close()
}

func TestConnManagerMaxConns(t *testing.T) {
	m := &ConnManager{MaxConns: 1}
	dials := 0
	dialer, cleanup := pipeDialer(t, &dials)
	defer cleanup()

	conn, _, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, _, err = m.AcquireConn(dialer); err != ErrNoFreeConns {
		t.Fatalf("expected ErrNoFreeConns, got %v", err)
	}

	//the slot frees up once the connection is surrendered
	m.Close(conn)
	conn, _, err = m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	m.Close(conn)
}

func TestConnManagerIdleEviction(t *testing.T) {
	m := &ConnManager{MaxIdleConnDuration: 50 * time.Millisecond}
	dials := 0
	dialer, cleanup := pipeDialer(t, &dials)
	defer cleanup()

	conn, createdTime, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	m.Release(conn, createdTime)

	//wait for the cleaner to sweep the parked connection
	time.Sleep(300 * time.Millisecond)

	again, _, err := m.AcquireConn(dialer)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if dials != 2 {
		t.Fatalf("evicted connection should not be handed out, dial count %d", dials)
	}
	m.Close(again)
}
