package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/haxii/h1/bufiopool"
	"github.com/haxii/h1/util"
	"github.com/valyala/bytebufferpool"
)

type payloadKind int

const (
	payloadSized payloadKind = iota
	payloadChunked
	payloadIdentity
)

//PayloadCodec body-only decoder produced by downgrading a
//ClientCodec once the response head is consumed
type PayloadCodec struct {
	pool *bufiopool.Pool
	br   *bufio.Reader

	kind payloadKind
	//bytes left in a fixed-size body, or in the current chunk of a
	//chunked one
	remaining int64
	//a chunked body has consumed its terminating zero-size chunk
	finished bool

	keepalive bool
}

var (
	errBrokenChunk = errors.New("broken chunk: missing trailing CRLF")
)

//PayloadCodec downgrade the head-capable codec into a body-only one,
//the write side is surrendered back to the pool
func (c *ClientCodec) PayloadCodec() *PayloadCodec {
	if c.head == nil {
		panic("codec: PayloadCodec called before a response head was decoded")
	}
	c.releaseWriter()

	p := &PayloadCodec{
		pool:      c.pool,
		br:        c.br,
		keepalive: c.Keepalive(),
	}
	c.br = nil

	switch {
	case c.head.Chunked():
		p.kind = payloadChunked
	case c.head.HasContentLength():
		p.kind = payloadSized
		p.remaining = c.head.ContentLength()
	default:
		p.kind = payloadIdentity
		//an identity body only ends when the peer closes, the
		//connection cannot outlive it
		p.keepalive = false
	}
	return p
}

//DecodeChunk pull the next burst of body bytes off the wire
//
//returns (nil, nil) once the body is complete, the returned slice is
//only valid until the next call
func (p *PayloadCodec) DecodeChunk() ([]byte, error) {
	switch p.kind {
	case payloadSized:
		if p.remaining == 0 {
			return nil, nil
		}
		chunk, err := p.readFixed(p.remaining)
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		p.remaining -= int64(len(chunk))
		return chunk, nil

	case payloadChunked:
		return p.decodeChunked()

	default: //identity, body runs until the peer closes
		if p.finished {
			return nil, nil
		}
		chunk, err := p.readFixed(int64(p.br.Size()))
		if err != nil {
			if err == io.EOF {
				p.finished = true
				return nil, nil
			}
			return nil, err
		}
		return chunk, nil
	}
}

func (p *PayloadCodec) decodeChunked() ([]byte, error) {
	if p.finished {
		return nil, nil
	}
	if p.remaining == 0 {
		size, err := p.readChunkSize()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if size == 0 {
			if err := p.discardCRLF(); err != nil {
				if err == io.EOF {
					return nil, io.ErrUnexpectedEOF
				}
				return nil, err
			}
			p.finished = true
			return nil, nil
		}
		p.remaining = int64(size)
	}
	chunk, err := p.readFixed(p.remaining)
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	p.remaining -= int64(len(chunk))
	if p.remaining == 0 {
		if err := p.discardCRLF(); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return chunk, nil
}

//readFixed read up to max buffered bytes, blocking until at least
//one byte is available
func (p *PayloadCodec) readFixed(max int64) ([]byte, error) {
	//read one more byte to block until data arrives
	if b, err := p.br.Peek(1); len(b) == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}

	//must read buffed bytes
	b := util.PeekBuffered(p.br)
	n := int64(len(b))
	if max < n {
		n = max
	}
	chunk := b[:n]
	if _, err := p.br.Discard(int(n)); err != nil {
		return nil, util.ErrWrapper(err, "fail to consume payload bytes")
	}
	return chunk, nil
}

func (p *PayloadCodec) readChunkSize() (int, error) {
	buffer := bytebufferpool.Get()
	defer bytebufferpool.Put(buffer)
	n, err := util.ReadHexInt(p.br, buffer)
	if err != nil {
		return -1, err
	}
	return n, p.discardCRLF()
}

func (p *PayloadCodec) discardCRLF() error {
	c, err := p.br.ReadByte()
	if err != nil {
		return util.ErrWrapper(err, "cannot read '\\r' char of chunk delimiter")
	}
	if c != '\r' {
		return fmt.Errorf("unexpected char %q in chunk delimiter. Expected %q: %w",
			c, '\r', errBrokenChunk)
	}
	c, err = p.br.ReadByte()
	if err != nil {
		return util.ErrWrapper(err, "cannot read '\\n' char of chunk delimiter")
	}
	if c != '\n' {
		return fmt.Errorf("unexpected char %q in chunk delimiter. Expected %q: %w",
			c, '\n', errBrokenChunk)
	}
	return nil
}

//Keepalive whether the connection is reusable once this payload is
//fully drained
func (p *PayloadCodec) Keepalive() bool {
	return p.keepalive
}

//Release return the buffered reader to the pool, the codec must not
//be used afterwards
func (p *PayloadCodec) Release() {
	if p.br != nil {
		p.pool.ReleaseReader(p.br)
		p.br = nil
	}
}
