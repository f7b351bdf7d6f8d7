package http

import (
	"strconv"
	"strings"

	"tiny-http/application/http/status"

	"github.com/indigo-web/utils/strcomp"
	"github.com/pkg/errors"
)

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

var methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod matches token against the supported methods, ignoring case.
func ParseMethod(token string) (Method, error) {
	for _, m := range methods {
		if strcomp.EqualFold(token, string(m)) {
			return m, nil
		}
	}

	return "", &MethodError{Token: token}
}

type Header struct{ Name, Value string }

// ParseHeader splits line on its first colon.
// The value is trimmed, the name is kept as is.
func ParseHeader(line string) (Header, error) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return Header{}, errors.Wrapf(ErrUnsupportedHeaderFormat, "%q", line)
	}

	return Header{Name: name, Value: strings.TrimSpace(value)}, nil
}

func (h Header) String() string { return h.Name + ": " + h.Value }

type Request struct {
	Method  Method
	Path    string
	Headers []Header // In arrival order. Duplicates are kept.

	Body []byte // nil when the request has no body.
}

// Header returns the value of the first header whose name equals name, ignoring case.
func (r *Request) Header(name string) (value string, ok bool) {
	return findHeader(r.Headers, name)
}

// ContentLength reports the declared body length.
// ok is false when the header is absent or is not a non-negative integer.
func (r *Request) ContentLength() (n int64, ok bool) {
	return contentLength(r.Headers)
}

func findHeader(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if strcomp.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func contentLength(headers []Header) (int64, bool) {
	v, ok := findHeader(headers, "content-length")
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Response is written as is. Nothing, including Content-Length, is added on encoding.
type Response struct {
	Status  status.Status
	Headers []string // Raw "Name: Value" lines.

	Body []byte // nil when the response has no body.
}

func OK(headers []string, body []byte) *Response {
	return &Response{Status: status.OK, Headers: headers, Body: body}
}

func EmptyOK() *Response { return &Response{Status: status.OK} }

func Created() *Response { return &Response{Status: status.Created} }

func NotFound() *Response { return &Response{Status: status.NotFound} }

// Error describes err in the body of a 500 response.
func Error(err error) *Response {
	return &Response{
		Status: status.InternalServerError,
		Body:   []byte(err.Error()),
	}
}

// ContentHeaders returns the type and length headers for a body of n bytes.
func ContentHeaders(contentType string, n int) []string {
	return []string{
		"Content-Type: " + contentType,
		"Content-Length: " + strconv.Itoa(n),
	}
}
