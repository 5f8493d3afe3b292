package http

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func TestResponseHeadParse(t *testing.T) {
	head := parseResponseHead(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/plain\r\n"+
		"Content-Length: 12\r\n"+
		"\r\n")
	if head.StatusCode() != 200 {
		t.Fatalf("unexpected status code %d", head.StatusCode())
	}
	if string(head.Reason()) != "OK" {
		t.Fatalf("unexpected reason %q", head.Reason())
	}
	if string(head.Protocol()) != "HTTP/1.1" {
		t.Fatalf("unexpected protocol %q", head.Protocol())
	}
	if !head.HasContentLength() || head.ContentLength() != 12 {
		t.Fatalf("unexpected content length %d", head.ContentLength())
	}
	if head.Chunked() {
		t.Fatal("fixed size response reported as chunked")
	}
	if !head.KeepAlive() {
		t.Fatal("http/1.1 response without Connection: close should keep alive")
	}
	if string(head.Header().Get("content-type")) != "text/plain" {
		t.Fatal("header lookup should be case-insensitive")
	}
}

func TestResponseHeadParseNoReason(t *testing.T) {
	head := parseResponseHead(t, "HTTP/1.1 100\r\n\r\n")
	if head.StatusCode() != 100 {
		t.Fatalf("unexpected status code %d", head.StatusCode())
	}
	if len(head.Reason()) != 0 {
		t.Fatalf("unexpected reason %q", head.Reason())
	}
}

func TestResponseHeadParseChunked(t *testing.T) {
	head := parseResponseHead(t, "HTTP/1.1 200 OK\r\n"+
		"Transfer-Encoding: chunked\r\n"+
		"\r\n")
	if !head.Chunked() {
		t.Fatal("chunked response not detected")
	}
	if head.HasContentLength() {
		t.Fatal("chunked response should not report a content length")
	}
}

func TestResponseHeadKeepAlive(t *testing.T) {
	head := parseResponseHead(t, "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\n")
	if head.KeepAlive() {
		t.Fatal("Connection: close should not keep alive")
	}

	head = parseResponseHead(t, "HTTP/1.0 200 OK\r\n\r\n")
	if head.KeepAlive() {
		t.Fatal("http/1.0 without keep-alive header should not keep alive")
	}

	head = parseResponseHead(t, "HTTP/1.0 200 OK\r\nConnection: keep-alive\r\n\r\n")
	if !head.KeepAlive() {
		t.Fatal("http/1.0 with Connection: keep-alive should keep alive")
	}
}

func TestResponseHeadParseErrors(t *testing.T) {
	testResponseHeadParseError(t, "", io.EOF.Error())
	testResponseHeadParseError(t, "HTTP/1.1 abc OK\r\n\r\n", "fail to parse status code")
	testResponseHeadParseError(t, "HTTP/1.1\r\n\r\n", "no protocol provided")
	testResponseHeadParseError(t, "HTTP/1.1 200 OK\r\nServer: x\r\n",
		io.ErrUnexpectedEOF.Error())
}

func testResponseHeadParseError(t *testing.T, raw, expErr string) {
	head := &ResponseHead{}
	err := head.Parse(bufio.NewReader(strings.NewReader(raw)))
	if err == nil {
		t.Fatalf("expected error parsing %q", raw)
	}
	if !strings.Contains(err.Error(), expErr) {
		t.Fatalf("unexpected error: %s, expected: %s", err, expErr)
	}
}

func parseResponseHead(t *testing.T, raw string) *ResponseHead {
	head := &ResponseHead{}
	if err := head.Parse(bufio.NewReader(strings.NewReader(raw))); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return head
}

func TestRequestHeadTypeOverlay(t *testing.T) {
	base := NewRequestHead("GET", "http://example.com/")
	if err := base.Header().Set("User-Agent", "h1-test"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	extra := &Header{}
	if err := extra.Set("User-Agent", "h1-overlay"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	shared := SharedHead(base, extra)

	if !shared.HasHeader("user-agent") {
		t.Fatal("overlay lookup should consult both header sets")
	}
	if string(shared.PeekHeader("User-Agent")) != "h1-overlay" {
		t.Fatal("overlay should shadow the base head")
	}

	// a shared head must stay immutable, mutation goes to the overlay
	if err := shared.SetHeader("Host", "example.org"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if base.Header().Has("Host") {
		t.Fatal("setting a header on a shared head must not touch the base head")
	}

	visited := map[string]string{}
	shared.VisitAll(func(key, value []byte) {
		visited[string(key)] = string(value)
	})
	if visited["User-Agent"] != "h1-overlay" {
		t.Fatalf("unexpected visited headers: %v", visited)
	}
	if visited["Host"] != "example.org" {
		t.Fatalf("unexpected visited headers: %v", visited)
	}
}

func TestRequestHeadTypeOwned(t *testing.T) {
	base := NewRequestHead("get", "http://example.com/a?b=c")
	if string(base.Method()) != "GET" {
		t.Fatalf("method should be upper case, got %q", base.Method())
	}
	owned := OwnedHead(base)
	if err := owned.SetHeader("Host", "example.com"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !base.Header().Has("Host") {
		t.Fatal("setting a header on an owned head should mutate the head")
	}
	if owned.ExtraHeader() != nil {
		t.Fatal("owned head should carry no overlay")
	}
}

func TestHeaderValidation(t *testing.T) {
	h := &Header{}
	if err := h.Set("Bad Name", "x"); err == nil {
		t.Fatal("header name with a space should be rejected")
	}
	if err := h.Set("X-Ok", "bad\x00value"); err == nil {
		t.Fatal("header value with a NUL should be rejected")
	}
	if err := h.Add("X-Ok", "fine"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if h.Len() != 1 {
		t.Fatalf("unexpected header count %d", h.Len())
	}
}
