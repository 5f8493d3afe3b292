package exchange

import "errors"

// ErrDisconnected may be returned from exchange methods if the server
// closes connection before returning the expected response head.
//
// If you see this error, then either fix the server by returning
// 'Connection: close' response header before closing the connection
// or add 'Connection: close' request header before sending requests
// to broken server.
var ErrDisconnected = errors.New("the server closed connection before returning the expected response head. " +
	"Make sure the server returns 'Connection: close' response header before closing the connection")

// ErrExpectBodyMissing is returned when a request declares
// `Expect: 100-continue` while its declared body size is absent, empty
// or zero. RFC 7231 section 5.1.1 forbids the Expect header on
// requests without a body, so the exchange never reaches the wire
// beyond the head.
var ErrExpectBodyMissing = errors.New("request declares Expect: 100-continue without a body to send")

var (
	errNilConn      = errors.New("nil connection provided")
	errNilPool      = errors.New("nil connection pool provided")
	errNilBufiopool = errors.New("nil buffer io pool provided")
)
