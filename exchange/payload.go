package exchange

import (
	"io"
	"runtime"

	"github.com/haxii/h1/codec"
	"github.com/haxii/h1/util"
)

// PayloadStream exposes a response body as a lazy, finite,
// non-restartable sequence of byte chunks over the leased connection.
// Construction takes sole ownership of the lease away from the
// driver; the lease is handed back to the pool exactly once, when the
// sequence ends or the stream is closed.
type PayloadStream struct {
	lease *Conn
	pc    *codec.PayloadCodec

	// bytes of the current chunk not yet handed out via Read
	pending []byte

	done bool
	err  error
}

func newPayloadStream(lease *Conn, pc *codec.PayloadCodec) *PayloadStream {
	s := &PayloadStream{lease: lease, pc: pc}
	//a stream dropped without draining or Close would keep the pool
	//slot occupied forever, the finalizer is the fallback owner
	runtime.SetFinalizer(s, (*PayloadStream).abandon)
	return s
}

//end mark the sequence over, the fallback owner is no longer needed
func (s *PayloadStream) end() {
	s.done = true
	runtime.SetFinalizer(s, nil)
}

//abandon discard path for streams the consumer dropped mid-body,
//only ever invoked by the runtime once the stream is unreachable
func (s *PayloadStream) abandon() {
	if !s.done {
		s.pc.Release()
		s.lease.close()
	}
}

// Next pulls the next body chunk off the wire. The returned slice is
// only valid until the following call. io.EOF signals the regular end
// of the sequence, at which point the connection has already been
// released or closed per keep-alive. Any other error is terminal: the
// connection is unrecoverable and has been put on the discard path,
// never on the reuse path.
func (s *PayloadStream) Next() ([]byte, error) {
	if s.done {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	chunk, err := s.pc.DecodeChunk()
	if err != nil {
		s.end()
		s.err = util.ErrWrapper(err, "fail to decode response payload")
		s.pc.Release()
		s.lease.close()
		return nil, s.err
	}
	if chunk == nil {
		s.end()
		keepAlive := s.pc.Keepalive()
		s.pc.Release()
		s.lease.onRelease(keepAlive)
		return nil, io.EOF
	}
	return chunk, nil
}

var _ io.ReadCloser = (*PayloadStream)(nil)

// Read adapts the chunk sequence to a plain io.Reader.
func (s *PayloadStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		chunk, err := s.Next()
		if err != nil {
			return 0, err
		}
		s.pending = chunk
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Close abandons the stream before end-of-sequence. The connection
// cannot be reused with body bytes still in flight, so it goes to the
// pool's discard path. Closing a drained or already-closed stream is
// a no-op.
func (s *PayloadStream) Close() error {
	if s.done {
		return nil
	}
	s.end()
	s.pc.Release()
	s.lease.close()
	return nil
}
