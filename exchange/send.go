package exchange

import (
	"io"
	"net"
	"time"

	"github.com/haxii/h1/bufiopool"
	"github.com/haxii/h1/codec"
	"github.com/haxii/h1/http"
	"github.com/haxii/h1/transport"
	"github.com/haxii/h1/util"
	"github.com/haxii/log/v2"
	"github.com/valyala/bytebufferpool"
)

// Driver runs one HTTP/1.x request/response exchange over one leased
// connection. No retry lives here: a failed send surfaces to the
// caller, which may re-acquire a fresh connection and try again.
//
// It is safe calling Driver methods from concurrently running go
// routines as long as no two exchanges share a connection.
type Driver struct {
	// BufioPool buffer connection reader & writer pool
	BufioPool *bufiopool.Pool
}

// Do performs the given request over conn and returns the response
// head, paired with a payload stream when the response carries a body
// and nil when it does not.
//
// conn was acquired from pool at acquiredAt; ownership of conn passes
// to Do, which surrenders it back to the pool on every exit path
// except the streaming one, where the returned PayloadStream
// surrenders it once drained or closed.
func (d *Driver) Do(conn net.Conn, head http.RequestHeadType, body http.BodySource,
	acquiredAt time.Time, pool transport.Pool) (*http.ResponseHead, *PayloadStream, error) {
	if conn == nil {
		return nil, nil, errNilConn
	}
	if pool == nil {
		return nil, nil, errNilPool
	}
	if d.BufioPool == nil {
		return nil, nil, errNilBufiopool
	}
	if body == nil {
		body = http.NoBody
	}

	setHostHeader(&head)

	lease := newConn(conn, acquiredAt, pool)
	cc := codec.NewClientCodec(d.BufioPool, lease)

	// Check EXPECT header and enable expect handle flag accordingly.
	//
	// RFC: https://tools.ietf.org/html/rfc7231#section-5.1.1
	isExpect := false
	if head.HasHeader("Expect") {
		if body.Size().IsTrivial() {
			// the peer did nothing wrong here, hand the connection
			// back according to keep-alive instead of dropping it
			keepAlive := cc.Keepalive()
			cc.Release()
			lease.onRelease(keepAlive)
			return nil, nil, ErrExpectBodyMissing
		}
		isExpect = true
	}

	if err := cc.EncodeHead(&head, body.Size()); err != nil {
		return nil, nil, d.fail(cc, lease, err, "fail to write request head")
	}
	if err := cc.Flush(); err != nil {
		return nil, nil, d.fail(cc, lease, err, "fail to flush request head")
	}

	// special handle for EXPECT request: await the interim head
	// before a single body byte goes out
	doSend := true
	var resHead *http.ResponseHead
	if isExpect {
		interim, err := cc.DecodeHead()
		if err != nil {
			return nil, nil, d.failRead(cc, lease, err)
		}
		// any status but 100 means the interim head is the final
		// response head and the body is never sent
		if interim.StatusCode() != http.StatusContinue {
			doSend = false
			resHead = interim
		}
	}

	if doSend {
		if !body.Size().IsTrivial() {
			if err := sendBody(body, cc); err != nil {
				return nil, nil, d.fail(cc, lease, err, "fail to write request body")
			}
		}

		final, err := cc.DecodeHead()
		if err != nil {
			return nil, nil, d.failRead(cc, lease, err)
		}
		resHead = final
	}

	if cc.MessageType() == codec.MessageTypeNone {
		keepAlive := cc.Keepalive()
		cc.Release()
		lease.onRelease(keepAlive)
		return resHead, nil, nil
	}

	// hand the still-framed connection off to the payload stream,
	// the driver holds no reference to the transport from here on
	return resHead, newPayloadStream(lease, cc.PayloadCodec()), nil
}

// fail tear down after an I/O failure, the connection is presumed
// unreusable
func (d *Driver) fail(cc *codec.ClientCodec, lease *Conn, err error, msg string) error {
	cc.Release()
	lease.close()
	return util.ErrWrapper(err, msg)
}

// failRead tear down after the peer failed to deliver an expected
// response head
func (d *Driver) failRead(cc *codec.ClientCodec, lease *Conn, err error) error {
	cc.Release()
	lease.close()
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrDisconnected
	}
	return util.ErrWrapper(err, "fail to read response head")
}

// sendBody drains the body source through the codec. The inner loop
// fills the write buffer until it has no room or the source is
// exhausted, the outer loop flushes what accumulated; the source is
// never polled faster than the transport drains, so unflushed body
// data stays bounded by one write buffer.
func sendBody(body http.BodySource, cc *codec.ClientCodec) error {
	eof := false
	for !eof {
		for !eof && !cc.WriteBufferFull() {
			chunk, err := body.Next()
			if err == io.EOF {
				if e := cc.EncodeEOF(); e != nil {
					return e
				}
				eof = true
			} else if err != nil {
				return util.ErrWrapper(err, "fail to read request body")
			} else if e := cc.EncodeChunk(chunk); e != nil {
				return e
			}
		}

		if !cc.WriteBufferEmpty() {
			if err := cc.Flush(); err != nil {
				return err
			}
		}
	}
	return cc.Flush()
}

// setHostHeader synthesizes the Host header from the request URI when
// neither the base head nor its overlay carries one. The scheme
// default ports are left off. Failure to set the header is logged and
// the request proceeds without it.
func setHostHeader(head *http.RequestHeadType) {
	if head.HasHeader("Host") {
		return
	}
	u := head.Head().URI()
	host := u.HostName()
	if len(host) == 0 {
		return
	}

	buffer := bytebufferpool.Get()
	defer bytebufferpool.Put(buffer)
	buffer.Write(host)
	if port := u.Port(); len(port) > 0 && !isSchemeDefaultPort(port) {
		buffer.WriteByte(':')
		buffer.Write(port)
	}

	if err := head.SetHeader("Host", string(buffer.B)); err != nil {
		log.Errorf(err, "can not set Host header %s", buffer.B)
	}
}

func isSchemeDefaultPort(port []byte) bool {
	return len(port) == 2 && port[0] == '8' && port[1] == '0' ||
		len(port) == 3 && port[0] == '4' && port[1] == '4' && port[2] == '3'
}
