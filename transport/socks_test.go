package transport

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
)

func TestSOCKS5Handshake(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- func() error {
			greeting := make([]byte, 3)
			if _, err := io.ReadFull(server, greeting); err != nil {
				return err
			}
			if !bytes.Equal(greeting, []byte{5, 1, socks5AuthNone}) {
				t.Errorf("unexpected greeting % x", greeting)
			}
			if _, err := server.Write([]byte{5, socks5AuthNone}); err != nil {
				return err
			}

			//ver cmd rsv atyp len "example.com" port
			req := make([]byte, 4+1+11+2)
			if _, err := io.ReadFull(server, req); err != nil {
				return err
			}
			exp := append([]byte{5, socks5Connect, 0, socks5Domain, 11}, "example.com"...)
			exp = append(exp, 0, 80)
			if !bytes.Equal(req, exp) {
				t.Errorf("unexpected connect request % x, expected % x", req, exp)
			}
			_, err := server.Write([]byte{5, 0, 0, socks5IP4, 0, 0, 0, 0, 0, 0})
			return err
		}()
	}()

	d := NewSOCKS5Dialer("127.0.0.1:1080", "", "")
	if err := d.Handshake(client, "example.com:80"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("unexpected server error: %s", err)
	}
}

func TestSOCKS5HandshakeAuth(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- func() error {
			greeting := make([]byte, 4)
			if _, err := io.ReadFull(server, greeting); err != nil {
				return err
			}
			if !bytes.Equal(greeting, []byte{5, 2, socks5AuthNone, socks5AuthPassword}) {
				t.Errorf("unexpected greeting % x", greeting)
			}
			if _, err := server.Write([]byte{5, socks5AuthPassword}); err != nil {
				return err
			}

			auth := make([]byte, 3+4+6)
			if _, err := io.ReadFull(server, auth); err != nil {
				return err
			}
			exp := append([]byte{1, 4}, "user"...)
			exp = append(exp, 6)
			exp = append(exp, "secret"...)
			if !bytes.Equal(auth, exp) {
				t.Errorf("unexpected auth request % x, expected % x", auth, exp)
			}
			if _, err := server.Write([]byte{1, 0}); err != nil {
				return err
			}

			req := make([]byte, 4+net.IPv4len+2)
			if _, err := io.ReadFull(server, req); err != nil {
				return err
			}
			if !bytes.Equal(req, []byte{5, socks5Connect, 0, socks5IP4, 10, 0, 0, 1, 1, 187}) {
				t.Errorf("unexpected connect request % x", req)
			}
			_, err := server.Write([]byte{5, 0, 0, socks5IP4, 0, 0, 0, 0, 0, 0})
			return err
		}()
	}()

	d := NewSOCKS5Dialer("127.0.0.1:1080", "user", "secret")
	if err := d.Handshake(client, "10.0.0.1:443"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("unexpected server error: %s", err)
	}
}

func TestSOCKS5HandshakeRefused(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		greeting := make([]byte, 3)
		io.ReadFull(server, greeting)
		server.Write([]byte{5, socks5AuthNone})
		req := make([]byte, 4+1+11+2)
		io.ReadFull(server, req)
		//reply 5: connection refused
		server.Write([]byte{5, 5, 0, socks5IP4, 0, 0, 0, 0, 0, 0})
	}()

	d := NewSOCKS5Dialer("127.0.0.1:1080", "", "")
	err := d.Handshake(client, "example.com:80")
	if err == nil {
		t.Fatal("expected a connect failure")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("unexpected error: %s", err)
	}
}
