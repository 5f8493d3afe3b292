package http

import (
	"bufio"
	"errors"

	"golang.org/x/net/http/httpguts"
)

//Header ordered set of http header fields
//
//field names are matched case-insensitively, insertion order is
//kept for serialization
type Header struct {
	kvs []headerKV
}

type headerKV struct {
	key   []byte
	value []byte
}

var (
	errInvalidHeaderName  = errors.New("invalid header field name")
	errInvalidHeaderValue = errors.New("invalid header field value")
)

//Add append a header field, duplicated keys are kept
func (h *Header) Add(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) {
		return errInvalidHeaderName
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errInvalidHeaderValue
	}
	h.kvs = append(h.kvs, headerKV{key: []byte(key), value: []byte(value)})
	return nil
}

//Set set a header field replacing any existing one with the same name
func (h *Header) Set(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) {
		return errInvalidHeaderName
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return errInvalidHeaderValue
	}
	keyBytes := []byte(key)
	for i := range h.kvs {
		if equalsIgnoreCase(h.kvs[i].key, keyBytes) {
			h.kvs[i].value = []byte(value)
			return nil
		}
	}
	h.kvs = append(h.kvs, headerKV{key: keyBytes, value: []byte(value)})
	return nil
}

//appendRaw append a parsed header field without validation,
//used on the decode path where the bytes come off the wire
func (h *Header) appendRaw(key, value []byte) {
	kv := headerKV{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	}
	h.kvs = append(h.kvs, kv)
}

//Get first value of the named field, nil when absent
func (h *Header) Get(key string) []byte {
	keyBytes := []byte(key)
	for i := range h.kvs {
		if equalsIgnoreCase(h.kvs[i].key, keyBytes) {
			return h.kvs[i].value
		}
	}
	return nil
}

//Has whether the named field is present
func (h *Header) Has(key string) bool {
	return h.Get(key) != nil
}

//Len number of header fields
func (h *Header) Len() int {
	return len(h.kvs)
}

//VisitAll call f for every field in insertion order
func (h *Header) VisitAll(f func(key, value []byte)) {
	for i := range h.kvs {
		f(h.kvs[i].key, h.kvs[i].value)
	}
}

//Reset drop all fields
func (h *Header) Reset() {
	h.kvs = h.kvs[:0]
}

//WriteTo serialize all fields as `Key: Value CRLF` lines
func (h *Header) WriteTo(bw *bufio.Writer) error {
	for i := range h.kvs {
		if _, err := bw.Write(h.kvs[i].key); err != nil {
			return err
		}
		if _, err := bw.WriteString(": "); err != nil {
			return err
		}
		if _, err := bw.Write(h.kvs[i].value); err != nil {
			return err
		}
		if _, err := bw.WriteString("\r\n"); err != nil {
			return err
		}
	}
	return nil
}
