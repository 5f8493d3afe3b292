package transport

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

const socks5Version = 5

const (
	socks5AuthNone     = 0
	socks5AuthPassword = 2
)

const socks5Connect = 1

const (
	socks5IP4    = 1
	socks5Domain = 3
	socks5IP6    = 4
)

var socks5Errors = []string{
	"",
	"general failure",
	"connection forbidden",
	"network unreachable",
	"host unreachable",
	"connection refused",
	"TTL expired",
	"command not supported",
	"address type not supported",
}

// SOCKS5Dialer dials target hosts through one SOCKS5 proxy. The
// greeting and authentication frames are precomputed once, Dial is
// a NewConn convenience for ConnManager.AcquireConn like Dial and
// DialTLS.
type SOCKS5Dialer struct {
	proxyAddr string

	greeting []byte
	auth     []byte
}

// NewSOCKS5Dialer make a dialer for the SOCKS5 proxy at proxyAddr,
// username/password authentication is offered when user is non-empty
func NewSOCKS5Dialer(proxyAddr, user, pass string) *SOCKS5Dialer {
	d := &SOCKS5Dialer{proxyAddr: proxyAddr}
	d.greeting = append(d.greeting, socks5Version)
	if len(user) > 0 && len(user) < 256 && len(pass) < 256 {
		d.greeting = append(d.greeting, 2, /* num auth methods */
			socks5AuthNone, socks5AuthPassword)
		// See RFC 1929
		d.auth = append(d.auth, 1 /* password protocol version */)
		d.auth = append(d.auth, uint8(len(user)))
		d.auth = append(d.auth, user...)
		d.auth = append(d.auth, uint8(len(pass)))
		d.auth = append(d.auth, pass...)
	} else {
		d.greeting = append(d.greeting, 1, /* num auth methods */
			socks5AuthNone)
	}
	return d
}

// Dial connect to the proxy and command it to extend the connection
// to targetAddr, which must carry a host and a port
func (d *SOCKS5Dialer) Dial(targetAddr string) (net.Conn, error) {
	conn, err := Dial(d.proxyAddr)
	if err != nil {
		return nil, err
	}
	if err = d.Handshake(conn, targetAddr); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Handshake run the SOCKS5 negotiation for targetAddr over an
// established proxy connection
func (d *SOCKS5Dialer) Handshake(conn net.Conn, targetAddr string) error {
	host, portStr, err := net.SplitHostPort(targetAddr)
	if err != nil {
		return fmt.Errorf("invalid target address %q: %s", targetAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 0xffff {
		return fmt.Errorf("invalid target port in %q", targetAddr)
	}

	if _, err = conn.Write(d.greeting); err != nil {
		return fmt.Errorf("fail to write greeting to SOCKS5 proxy at %s: %s",
			d.proxyAddr, err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Write([]byte{0, 0})
	if _, err = io.ReadFull(conn, buf.B[:2]); err != nil {
		return fmt.Errorf("fail to read greeting from SOCKS5 proxy at %s: %s",
			d.proxyAddr, err)
	}
	if buf.B[0] != socks5Version {
		return fmt.Errorf("SOCKS5 proxy at %s has unexpected version %d",
			d.proxyAddr, buf.B[0])
	}
	if buf.B[1] == 0xff {
		return fmt.Errorf("SOCKS5 proxy at %s requires authentication", d.proxyAddr)
	}

	if buf.B[1] == socks5AuthPassword {
		if _, err = conn.Write(d.auth); err != nil {
			return fmt.Errorf("fail to write authentication request to SOCKS5 proxy at %s: %s",
				d.proxyAddr, err)
		}
		if _, err = io.ReadFull(conn, buf.B[:2]); err != nil {
			return fmt.Errorf("fail to read authentication reply from SOCKS5 proxy at %s: %s",
				d.proxyAddr, err)
		}
		if buf.B[1] != 0 {
			return fmt.Errorf("SOCKS5 proxy at %s rejected username/password", d.proxyAddr)
		}
	}

	buf.Reset()
	buf.WriteByte(socks5Version)
	buf.WriteByte(socks5Connect)
	buf.WriteByte(0) /* reserved */
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			buf.WriteByte(socks5IP4)
			ip = ip4
		} else {
			buf.WriteByte(socks5IP6)
		}
		buf.Write(ip)
	} else {
		if len(host) > 255 {
			return fmt.Errorf("target host name too long: %s", host)
		}
		buf.WriteByte(socks5Domain)
		buf.WriteByte(byte(len(host)))
		buf.WriteString(host)
	}
	buf.WriteByte(byte(port >> 8))
	buf.WriteByte(byte(port))

	if _, err = conn.Write(buf.B); err != nil {
		return fmt.Errorf("fail to write connect request to SOCKS5 proxy at %s: %s",
			d.proxyAddr, err)
	}
	if _, err = io.ReadFull(conn, buf.B[:4]); err != nil {
		return fmt.Errorf("fail to read connect reply from SOCKS5 proxy at %s: %s",
			d.proxyAddr, err)
	}

	failure := "unknown error"
	if int(buf.B[1]) < len(socks5Errors) {
		failure = socks5Errors[buf.B[1]]
	}
	if len(failure) > 0 {
		return fmt.Errorf("SOCKS5 proxy at %s failed to connect: %s",
			d.proxyAddr, failure)
	}

	// discard the bound address and port of the reply
	bytesToDiscard := 0
	switch buf.B[3] {
	case socks5IP4:
		bytesToDiscard = net.IPv4len
	case socks5IP6:
		bytesToDiscard = net.IPv6len
	case socks5Domain:
		if _, err = io.ReadFull(conn, buf.B[:1]); err != nil {
			return fmt.Errorf("fail to read domain length from SOCKS5 proxy at %s: %s",
				d.proxyAddr, err)
		}
		bytesToDiscard = int(buf.B[0])
	default:
		return fmt.Errorf("got unknown address type %d from SOCKS5 proxy at %s",
			buf.B[3], d.proxyAddr)
	}
	if cap(buf.B) < bytesToDiscard {
		buf.B = make([]byte, bytesToDiscard)
	} else {
		buf.B = buf.B[:bytesToDiscard]
	}
	if _, err = io.ReadFull(conn, buf.B); err != nil {
		return fmt.Errorf("fail to read bound address from SOCKS5 proxy at %s: %s",
			d.proxyAddr, err)
	}
	if _, err = io.ReadFull(conn, buf.B[:2]); err != nil {
		return fmt.Errorf("fail to read bound port from SOCKS5 proxy at %s: %s",
			d.proxyAddr, err)
	}
	return nil
}
