package exchange

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/haxii/h1/http"
)

var (
	encodingGzip     = []byte("gzip")
	encodingDeflate  = []byte("deflate")
	encodingBrotli   = []byte("br")
	encodingIdentity = []byte("identity")
)

// DecodePayload wraps the payload stream with a decompressing reader
// chosen from the response's Content-Encoding header. An absent or
// identity encoding returns the stream itself. Closing the returned
// reader closes the stream, which puts an undrained connection on the
// discard path as usual.
func DecodePayload(head *http.ResponseHead, stream *PayloadStream) (io.ReadCloser, error) {
	encoding := head.Header().Get("Content-Encoding")
	switch {
	case len(encoding) == 0, bytes.EqualFold(encoding, encodingIdentity):
		return stream, nil
	case bytes.EqualFold(encoding, encodingGzip):
		zr, err := gzip.NewReader(stream)
		if err != nil {
			stream.Close()
			return nil, err
		}
		return &decodedPayload{Reader: zr, stream: stream}, nil
	case bytes.EqualFold(encoding, encodingDeflate):
		zr, err := zlib.NewReader(stream)
		if err != nil {
			stream.Close()
			return nil, err
		}
		return &decodedPayload{Reader: zr, stream: stream}, nil
	case bytes.EqualFold(encoding, encodingBrotli):
		return &decodedPayload{Reader: brotli.NewReader(stream), stream: stream}, nil
	}
	stream.Close()
	return nil, fmt.Errorf("unsupported Content-Encoding %q", encoding)
}

type decodedPayload struct {
	io.Reader
	stream *PayloadStream
}

func (d *decodedPayload) Close() error {
	if c, ok := d.Reader.(io.Closer); ok {
		c.Close()
	}
	return d.stream.Close()
}
