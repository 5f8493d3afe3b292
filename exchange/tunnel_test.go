package exchange

import (
	"strings"
	"testing"
)

func TestOpenTunnel(t *testing.T) {
	conn := newFakeConn("HTTP/1.1 200 Connection Established\r\n\r\nserver-early-bytes")
	resHead, tunnel, err := testDriver.OpenTunnel(conn, testHead("CONNECT", "example.com:8443"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if resHead.StatusCode() != 200 {
		t.Fatalf("unexpected status code %d", resHead.StatusCode())
	}

	req := conn.out.String()
	if !strings.HasPrefix(req, "CONNECT example.com:8443 HTTP/1.1\r\n") {
		t.Fatalf("unexpected request start line:\n%q", req)
	}
	if !strings.Contains(req, "Host: example.com:8443\r\n") {
		t.Fatalf("unexpected Host header:\n%q", req)
	}

	// bytes the server sent right behind its head must not be lost
	buf := make([]byte, 64)
	n, err := tunnel.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(buf[:n]) != "server-early-bytes" {
		t.Fatalf("unexpected tunnel bytes %q", buf[:n])
	}

	conn.out.Reset()
	if _, err = tunnel.Write([]byte("client-data")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if conn.out.String() != "client-data" {
		t.Fatalf("tunnel writes should reach the connection raw, got %q", conn.out.String())
	}

	if tunnel.Conn() != conn {
		t.Fatal("tunnel should expose the underlying connection")
	}
	if err = tunnel.Close(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestOpenTunnelRejected(t *testing.T) {
	// a non-2xx head is still handed to the caller along with the
	// connection, no release/close decision is made here
	conn := newFakeConn("HTTP/1.1 407 Proxy Authentication Required\r\nContent-Length: 0\r\n\r\n")
	resHead, tunnel, err := testDriver.OpenTunnel(conn, testHead("CONNECT", "example.com:443"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if resHead.StatusCode() != 407 {
		t.Fatalf("unexpected status code %d", resHead.StatusCode())
	}
	if tunnel == nil {
		t.Fatal("the connection stays with the caller even on rejection")
	}
	tunnel.Close()
}

func TestOpenTunnelDisconnected(t *testing.T) {
	conn := newFakeConn("")
	if _, _, err := testDriver.OpenTunnel(conn, testHead("CONNECT", "example.com:443")); err != ErrDisconnected {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}
