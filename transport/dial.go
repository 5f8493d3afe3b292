package transport

import (
	"crypto/tls"
	"net"
	"time"
)

// DefaultDialTimeout is used when dialing a host without an explicit
// timeout.
const DefaultDialTimeout = 30 * time.Second

//Dial dial without pool
func Dial(addr string) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, DefaultDialTimeout)
}

//DialTLS dial tls without pool
func DialTLS(addr string, tlsConfig *tls.Config) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, DefaultDialTimeout)
	if err != nil {
		return nil, err
	}
	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
