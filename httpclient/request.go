package httpclient

import (
	"bytes"
	"net/http"
)

// Request describes one logical HTTP call. It is built once by the caller; the client
// snapshots it on Execute and sends that snapshot on every attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// NewRequest creates a request with an empty header set.
func NewRequest(method, url string, body []byte) *Request {
	return &Request{
		Method: method,
		URL:    url,
		Header: make(http.Header),
		Body:   body,
	}
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := &Request{
		Method: r.Method,
		URL:    r.URL,
		Header: r.Header.Clone(),
	}
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = bytes.Clone(r.Body)
	}
	return c
}

// Equal reports whether r and o describe the same method, URL, headers and body.
func (r *Request) Equal(o *Request) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Method != o.Method || r.URL != o.URL || !bytes.Equal(r.Body, o.Body) {
		return false
	}
	if len(r.Header) != len(o.Header) {
		return false
	}
	for k, vals := range r.Header {
		other, ok := o.Header[k]
		if !ok || len(other) != len(vals) {
			return false
		}
		for i := range vals {
			if vals[i] != other[i] {
				return false
			}
		}
	}
	return true
}
