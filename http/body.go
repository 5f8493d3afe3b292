package http

import (
	"io"
)

type bodySizeKind int

const (
	bodySizeNone bodySizeKind = iota
	bodySizeEmpty
	bodySizeSized
	bodySizeStream
)

//BodySize declared size classification of a request body, drives
//both the Expect handling decision and the framing strategy
type BodySize struct {
	kind   bodySizeKind
	length int64
}

var (
	//BodySizeNone no body at all
	BodySizeNone = BodySize{kind: bodySizeNone}
	//BodySizeEmpty a body known to be empty
	BodySizeEmpty = BodySize{kind: bodySizeEmpty}
	//BodySizeStream a body of unknown length, framed chunked
	BodySizeStream = BodySize{kind: bodySizeStream}
)

//BodySizeSized a body of exactly n bytes, framed with content-length
func BodySizeSized(n int64) BodySize {
	return BodySize{kind: bodySizeSized, length: n}
}

//IsTrivial whether no body bytes will be sent: absent, empty or
//fixed zero length
func (s BodySize) IsTrivial() bool {
	switch s.kind {
	case bodySizeNone, bodySizeEmpty:
		return true
	case bodySizeSized:
		return s.length == 0
	}
	return false
}

//IsStream whether the body length is unknown upfront
func (s BodySize) IsStream() bool {
	return s.kind == bodySizeStream
}

//Sized the fixed length and whether the size is fixed
func (s BodySize) Sized() (int64, bool) {
	return s.length, s.kind == bodySizeSized
}

//BodySource lazy byte-chunk producer for a request body
//
//Next returns the next chunk, valid until the following call, and
//io.EOF once the body is exhausted
type BodySource interface {
	Size() BodySize
	Next() ([]byte, error)
}

//NoBody a body source with nothing to send
var NoBody BodySource = (*noBody)(nil)

type noBody struct{}

func (*noBody) Size() BodySize        { return BodySizeNone }
func (*noBody) Next() ([]byte, error) { return nil, io.EOF }

//BytesBody fixed-size body source backed by a byte slice
func BytesBody(b []byte) BodySource {
	return &bytesBody{b: b}
}

type bytesBody struct {
	b    []byte
	done bool
}

func (b *bytesBody) Size() BodySize {
	return BodySizeSized(int64(len(b.b)))
}

func (b *bytesBody) Next() ([]byte, error) {
	if b.done || len(b.b) == 0 {
		return nil, io.EOF
	}
	b.done = true
	return b.b, nil
}

//ReaderBody unbounded body source draining an io.Reader, framed
//chunked on the wire
func ReaderBody(r io.Reader) BodySource {
	return &readerBody{r: r}
}

type readerBody struct {
	r   io.Reader
	buf [4096]byte
}

func (b *readerBody) Size() BodySize {
	return BodySizeStream
}

func (b *readerBody) Next() ([]byte, error) {
	for {
		n, err := b.r.Read(b.buf[:])
		if n > 0 {
			return b.buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}
