package exchange

import (
	"io"
	"net"

	"github.com/haxii/h1/codec"
	"github.com/haxii/h1/http"
)

// TunnelConn is the still-framed connection handed back by
// OpenTunnel. Reads go through the codec's buffered reader so bytes
// the server sent right behind its response head are not lost; writes
// go straight to the connection. Lifetime ownership sits entirely
// with the caller.
type TunnelConn struct {
	conn net.Conn
	cc   *codec.ClientCodec
}

func (t *TunnelConn) Read(p []byte) (int, error) {
	return t.cc.Reader().Read(p)
}

func (t *TunnelConn) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// Conn the raw underlying connection. Reading from it directly loses
// whatever the buffered reader holds; prefer TunnelConn.Read.
func (t *TunnelConn) Conn() net.Conn {
	return t.conn
}

// Close closes the underlying connection and returns the framing
// buffers to the pool.
func (t *TunnelConn) Close() error {
	err := t.conn.Close()
	t.cc.Release()
	return err
}

// OpenTunnel sends the request head with no body framing, awaits
// exactly one response head and returns it together with the
// still-framed connection. Unlike Do, no release/close decision is
// made: the caller keeps the connection whatever the response says,
// which is what CONNECT-style upgrades need.
func (d *Driver) OpenTunnel(conn net.Conn, head http.RequestHeadType) (*http.ResponseHead, *TunnelConn, error) {
	if conn == nil {
		return nil, nil, errNilConn
	}
	if d.BufioPool == nil {
		return nil, nil, errNilBufiopool
	}

	setHostHeader(&head)

	cc := codec.NewClientCodec(d.BufioPool, conn)
	if err := cc.EncodeHead(&head, http.BodySizeNone); err != nil {
		cc.Release()
		return nil, nil, err
	}
	if err := cc.Flush(); err != nil {
		cc.Release()
		return nil, nil, err
	}

	resHead, err := cc.DecodeHead()
	if err != nil {
		cc.Release()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil, ErrDisconnected
		}
		return nil, nil, err
	}

	return resHead, &TunnelConn{conn: conn, cc: cc}, nil
}
