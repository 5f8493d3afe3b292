package codec

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/haxii/h1/bufiopool"
	"github.com/haxii/h1/http"
	"github.com/haxii/h1/util"
)

//MessageType codec-derived classification of whether and how a
//response body follows the head
type MessageType int

const (
	//MessageTypeNone no body is expected, the exchange ends with the head
	MessageTypeNone MessageType = iota
	//MessageTypeSized a body of known length follows
	MessageTypeSized
	//MessageTypeStream a body of unknown length follows, chunked or
	//terminated by connection close
	MessageTypeStream
)

//ClientCodec frames one request/response exchange onto a duplex
//byte stream: request head and body chunks out, response head in
//
//once the response head is consumed the codec is downgraded with
//PayloadCodec for body-only decoding
type ClientCodec struct {
	pool *bufiopool.Pool

	br *bufio.Reader
	bw *bufio.Writer

	//request side state recorded at encode time
	reqIsHead    bool
	reqConnClose bool
	reqKeepAlive bool
	chunkedBody  bool

	//last decoded response head
	head *http.ResponseHead
}

//NewClientCodec frame rw with pooled buffer io
func NewClientCodec(pool *bufiopool.Pool, rw io.ReadWriter) *ClientCodec {
	return &ClientCodec{
		pool:         pool,
		br:           pool.AcquireReader(rw),
		bw:           pool.AcquireWriter(rw),
		reqKeepAlive: true,
	}
}

var (
	sp      = []byte(" ")
	crlf    = []byte("\r\n")
	colonSP = []byte(": ")
)

var (
	contentLengthKey    = []byte("Content-Length")
	transferEncodingKey = []byte("Transfer-Encoding")
	connectionKey       = []byte("Connection")
	chunkedValue        = []byte("chunked")
	closeValue          = []byte("close")
)

//EncodeHead serialize the request start line, the framing header
//derived from the declared body size and all request header fields,
//the write buffer is not flushed
func (c *ClientCodec) EncodeHead(head *http.RequestHeadType, size http.BodySize) error {
	base := head.Head()
	method := base.Method()
	c.reqIsHead = http.IsMethodHead(method)

	// start line, CONNECT uses authority-form target
	if err := util.WriteWithValidation(c.bw, method); err != nil {
		return err
	}
	if err := util.WriteWithValidation(c.bw, sp); err != nil {
		return err
	}
	var target []byte
	if http.IsMethodConnect(method) {
		target = []byte(base.URI().HostWithPort())
	} else {
		target = base.URI().PathWithQueryFragment()
	}
	if err := util.WriteWithValidation(c.bw, target); err != nil {
		return err
	}
	if err := util.WriteWithValidation(c.bw, sp); err != nil {
		return err
	}
	if err := util.WriteWithValidation(c.bw, base.Protocol()); err != nil {
		return err
	}
	if err := util.WriteWithValidation(c.bw, crlf); err != nil {
		return err
	}

	// framing header owned by the codec, user-supplied framing
	// fields are dropped below
	c.chunkedBody = false
	if n, fixed := size.Sized(); fixed || size == http.BodySizeEmpty {
		if err := c.writeHeaderField(contentLengthKey,
			[]byte(strconv.FormatInt(n, 10))); err != nil {
			return err
		}
	} else if size.IsStream() {
		c.chunkedBody = true
		if err := c.writeHeaderField(transferEncodingKey, chunkedValue); err != nil {
			return err
		}
	}

	var headerErr error
	head.VisitAll(func(key, value []byte) {
		if headerErr != nil {
			return
		}
		if equalsIgnoreCase(key, contentLengthKey) ||
			equalsIgnoreCase(key, transferEncodingKey) {
			return
		}
		if equalsIgnoreCase(key, connectionKey) &&
			bytes.Contains(bytes.ToLower(value), closeValue) {
			c.reqConnClose = true
		}
		headerErr = c.writeHeaderField(key, value)
	})
	if headerErr != nil {
		return headerErr
	}

	c.reqKeepAlive = !c.reqConnClose &&
		!bytes.Equal(base.Protocol(), []byte("HTTP/1.0"))

	return util.WriteWithValidation(c.bw, crlf)
}

func (c *ClientCodec) writeHeaderField(key, value []byte) error {
	if err := util.WriteWithValidation(c.bw, key); err != nil {
		return err
	}
	if err := util.WriteWithValidation(c.bw, colonSP); err != nil {
		return err
	}
	if err := util.WriteWithValidation(c.bw, value); err != nil {
		return err
	}
	return util.WriteWithValidation(c.bw, crlf)
}

func equalsIgnoreCase(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i, x := range a {
		y := b[i]
		if 'A' <= x && x <= 'Z' {
			x += 'a' - 'A'
		}
		if 'A' <= y && y <= 'Z' {
			y += 'a' - 'A'
		}
		if x != y {
			return false
		}
	}
	return true
}

//EncodeChunk frame one burst of body bytes, chunked framing is used
//for stream-sized bodies
func (c *ClientCodec) EncodeChunk(p []byte) error {
	if len(p) == 0 {
		// a zero-length chunk would read as end of a chunked body
		return nil
	}
	if c.chunkedBody {
		if err := util.WriteWithValidation(c.bw,
			[]byte(strconv.FormatInt(int64(len(p)), 16))); err != nil {
			return err
		}
		if err := util.WriteWithValidation(c.bw, crlf); err != nil {
			return err
		}
		if err := util.WriteWithValidation(c.bw, p); err != nil {
			return err
		}
		return util.WriteWithValidation(c.bw, crlf)
	}
	return util.WriteWithValidation(c.bw, p)
}

var chunkedBodyEnd = []byte("0\r\n\r\n")

//EncodeEOF frame the end-of-body sentinel, a no-op for fixed-size
//bodies
func (c *ClientCodec) EncodeEOF() error {
	if c.chunkedBody {
		return util.WriteWithValidation(c.bw, chunkedBodyEnd)
	}
	return nil
}

//Flush flush the outbound write buffer
func (c *ClientCodec) Flush() error {
	return c.bw.Flush()
}

//WriteBufferFull whether the outbound buffer has no room left
func (c *ClientCodec) WriteBufferFull() bool {
	return c.bw.Available() == 0
}

//WriteBufferEmpty whether the outbound buffer holds no unflushed bytes
func (c *ClientCodec) WriteBufferEmpty() bool {
	return c.bw.Buffered() == 0
}

//DecodeHead block until the next response head is parsed off the
//wire, io.EOF means the peer closed before delivering one
func (c *ClientCodec) DecodeHead() (*http.ResponseHead, error) {
	head := &http.ResponseHead{}
	if err := head.Parse(c.br); err != nil {
		return nil, err
	}
	c.head = head
	return head, nil
}

//MessageType derive from the decoded head whether a body follows;
//must not be called before DecodeHead succeeded
func (c *ClientCodec) MessageType() MessageType {
	head := c.head
	if head == nil {
		panic("codec: MessageType called before a response head was decoded")
	}
	status := head.StatusCode()
	switch {
	case status == http.StatusSwitchingProtocols:
		// upgraded connection, body runs until close
		return MessageTypeStream
	case c.reqIsHead, status < http.StatusOK,
		status == http.StatusNoContent, status == http.StatusNotModified:
		return MessageTypeNone
	case head.Chunked():
		return MessageTypeStream
	case head.HasContentLength():
		if head.ContentLength() == 0 {
			return MessageTypeNone
		}
		return MessageTypeSized
	}
	// neither length nor chunking declared, identity body to EOF
	return MessageTypeStream
}

//Keepalive whether the connection may be reused after this exchange,
//before a response head arrives the request side alone decides
func (c *ClientCodec) Keepalive() bool {
	if c.head == nil {
		return c.reqKeepAlive
	}
	return c.reqKeepAlive && c.head.KeepAlive()
}

//Reader the buffered wire reader, exposed for tunnel hand-off where
//read-ahead bytes must not be lost
func (c *ClientCodec) Reader() *bufio.Reader {
	return c.br
}

//Release return the buffer io to the pool, the codec must not be
//used afterwards
func (c *ClientCodec) Release() {
	if c.br != nil {
		c.pool.ReleaseReader(c.br)
		c.br = nil
	}
	c.releaseWriter()
}

func (c *ClientCodec) releaseWriter() {
	if c.bw != nil {
		c.pool.ReleaseWriter(c.bw)
		c.bw = nil
	}
}
