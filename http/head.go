package http

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/haxii/h1/uri"
	"github.com/haxii/h1/util"
)

var protocolHTTP11 = []byte("HTTP/1.1")

//RequestHead start line and header fields of an outgoing request
type RequestHead struct {
	method   []byte
	uri      uri.URI
	protocol []byte
	header   Header
}

//NewRequestHead make a request head from a method and a request URI,
//absolute (`http://host/path`) or origin (`/path`) form
func NewRequestHead(method, requestURI string) *RequestHead {
	h := &RequestHead{
		method:   []byte(method),
		protocol: protocolHTTP11,
	}
	changeToUpperCase(h.method)
	if IsMethodConnect(h.method) {
		h.uri.ParseAuthority([]byte(requestURI))
	} else {
		h.uri.Parse([]byte(requestURI))
	}
	return h
}

//Method request method in UPPER case
func (h *RequestHead) Method() []byte {
	return h.method
}

//URI parsed request URI
func (h *RequestHead) URI() *uri.URI {
	return &h.uri
}

//Protocol HTTP/1.0, HTTP/1.1 etc.
func (h *RequestHead) Protocol() []byte {
	return h.protocol
}

//SetProtocol override the request protocol version
func (h *RequestHead) SetProtocol(protocol string) {
	h.protocol = []byte(protocol)
}

//Header request header fields
func (h *RequestHead) Header() *Header {
	return &h.header
}

//RequestHeadType a request head that is either uniquely owned or
//shared across connection attempts
//
//a shared head is immutable, late header changes go to an
//extra-header overlay instead so the base head can be reused for
//retries without copying
type RequestHeadType struct {
	head   *RequestHead
	shared bool
	extra  *Header
}

//OwnedHead wrap a uniquely-owned request head
func OwnedHead(head *RequestHead) RequestHeadType {
	return RequestHeadType{head: head}
}

//SharedHead wrap a shared immutable head with an optional
//extra-header overlay
func SharedHead(head *RequestHead, extra *Header) RequestHeadType {
	return RequestHeadType{head: head, shared: true, extra: extra}
}

//Head the base request head
func (t *RequestHeadType) Head() *RequestHead {
	return t.head
}

//ExtraHeader the overlay of a shared head, nil for owned heads
func (t *RequestHeadType) ExtraHeader() *Header {
	return t.extra
}

//HasHeader whether the named field is present on the base head or
//its overlay
func (t *RequestHeadType) HasHeader(key string) bool {
	if t.head.header.Has(key) {
		return true
	}
	return t.extra != nil && t.extra.Has(key)
}

//PeekHeader first value of the named field, the overlay shadows
//the base head
func (t *RequestHeadType) PeekHeader(key string) []byte {
	if t.extra != nil {
		if v := t.extra.Get(key); v != nil {
			return v
		}
	}
	return t.head.header.Get(key)
}

//SetHeader set a header field, on the head itself when owned, on the
//overlay when shared
func (t *RequestHeadType) SetHeader(key, value string) error {
	if !t.shared {
		return t.head.header.Set(key, value)
	}
	if t.extra == nil {
		t.extra = &Header{}
	}
	return t.extra.Set(key, value)
}

//VisitAll visit the effective header fields: overlay fields shadow
//base fields with the same name
func (t *RequestHeadType) VisitAll(f func(key, value []byte)) {
	t.head.header.VisitAll(func(key, value []byte) {
		if t.extra != nil && t.extra.Get(string(key)) != nil {
			return
		}
		f(key, value)
	})
	if t.extra != nil {
		t.extra.VisitAll(f)
	}
}

//ResponseHead status line and header fields of a response, parsed
//once per exchange and immutable afterwards
type ResponseHead struct {
	protocol   []byte
	statusCode int
	reason     []byte

	header Header

	connClose     bool
	connKeepAlive bool

	hasContentLength bool
	contentLength    int64
	chunked          bool
}

//StatusCode response status code
func (h *ResponseHead) StatusCode() int {
	return h.statusCode
}

//Protocol response protocol i.e. http version
func (h *ResponseHead) Protocol() []byte {
	return h.protocol
}

//Reason response status message
func (h *ResponseHead) Reason() []byte {
	return h.reason
}

//Header response header fields
func (h *ResponseHead) Header() *Header {
	return &h.header
}

//ContentLength fixed body size declared in header, 0 when absent
func (h *ResponseHead) ContentLength() int64 {
	if h.hasContentLength && h.contentLength > 0 {
		return h.contentLength
	}
	return 0
}

//HasContentLength whether a `Content-Length` header was present
func (h *ResponseHead) HasContentLength() bool {
	return h.hasContentLength
}

//Chunked whether the body is `Transfer-Encoding: chunked`
func (h *ResponseHead) Chunked() bool {
	return h.chunked
}

var protocolHTTP10 = []byte("HTTP/1.0")

//KeepAlive whether this response leaves the connection reusable:
//HTTP/1.1 unless `Connection: close`, HTTP/1.0 only with an explicit
//`Connection: keep-alive`
func (h *ResponseHead) KeepAlive() bool {
	if bytes.Equal(h.protocol, protocolHTTP10) {
		return h.connKeepAlive
	}
	return !h.connClose
}

var (
	errRespLineNoProtocol   = errors.New("no protocol provided")
	errRespLineNoStatusCode = errors.New("no status code provided")
)

//Parse parse a response head from reader
//
//status-line = HTTP-version SP status-code SP reason-phrase CRLF
//followed by zero or more header fields and an empty line
func (h *ResponseHead) Parse(br *bufio.Reader) error {
	if err := h.parseStatusLine(br); err != nil {
		return err
	}
	return h.parseHeaderFields(br)
}

func (h *ResponseHead) parseStatusLine(br *bufio.Reader) error {
	respLine, err := readWireLine(br)
	if err != nil {
		return err
	}

	// http version token
	protocolEndIndex := bytes.IndexByte(respLine, ' ')
	if protocolEndIndex <= 0 {
		return errRespLineNoProtocol
	}
	h.protocol = append([]byte(nil), respLine[:protocolEndIndex]...)

	// 3-digit status code, the reason phrase may be empty
	statusCodeStartIndex := protocolEndIndex + 1
	rest := respLine[statusCodeStartIndex:]
	statusCodeEndIndex := bytes.IndexByte(rest, ' ')
	var statusCode, reason []byte
	if statusCodeEndIndex < 0 {
		statusCode = rest
	} else {
		statusCode = rest[:statusCodeEndIndex]
		reason = rest[statusCodeEndIndex+1:]
	}
	if len(statusCode) == 0 {
		return errRespLineNoStatusCode
	}
	code, err := strconv.Atoi(string(statusCode))
	if err != nil || code <= 0 {
		return util.ErrWrapper(err, "fail to parse status code %q", statusCode)
	}
	h.statusCode = code
	h.reason = append([]byte(nil), reason...)
	return nil
}

func (h *ResponseHead) parseHeaderFields(br *bufio.Reader) error {
	for {
		line, err := readWireLine(br)
		if err == io.EOF {
			// peer closed before the header terminating empty line
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
		h.parseHeaderLine(line)
	}
}

func (h *ResponseHead) parseHeaderLine(line []byte) {
	colonIndex := bytes.IndexByte(line, ':')
	if colonIndex <= 0 {
		// a field without a colon carries no meaning, drop it
		return
	}
	key := bytes.TrimSpace(line[:colonIndex])
	value := bytes.TrimSpace(line[colonIndex+1:])
	h.header.appendRaw(key, value)

	switch {
	case equalsIgnoreCase(key, connectionHeader):
		lowered := append([]byte(nil), value...)
		changeToLowerCase(lowered)
		if bytes.Contains(lowered, headerValueClose) {
			h.connClose = true
		}
		if bytes.Contains(lowered, headerValueKeepAlive) {
			h.connKeepAlive = true
		}
	case equalsIgnoreCase(key, contentLengthHeader):
		//content-length only counts with transfer encoding unset
		if !h.chunked {
			length, err := strconv.ParseInt(strings.TrimSpace(string(value)), 10, 64)
			if err == nil && length >= 0 {
				h.hasContentLength = true
				h.contentLength = length
			}
		}
	case equalsIgnoreCase(key, transferEncodingHeader):
		lowered := append([]byte(nil), value...)
		changeToLowerCase(lowered)
		if bytes.Contains(lowered, headerValueChunked) {
			h.chunked = true
			h.hasContentLength = false
			h.contentLength = 0
		}
	}
}

var (
	connectionHeader       = []byte("Connection")
	contentLengthHeader    = []byte("Content-Length")
	transferEncodingHeader = []byte("Transfer-Encoding")

	headerValueClose     = []byte("close")
	headerValueKeepAlive = []byte("keep-alive")
	headerValueChunked   = []byte("chunked")
)

//readWireLine read a single CRLF (or bare LF) terminated line,
//the terminator is stripped
func readWireLine(br *bufio.Reader) ([]byte, error) {
	lineWithCRLF, err := br.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(lineWithCRLF) == 0 {
			return nil, io.EOF
		}
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, util.ErrWrapper(err, "fail to read wire line")
	}
	line := lineWithCRLF[:len(lineWithCRLF)-1]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, nil
}
