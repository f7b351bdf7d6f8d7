package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"tiny-http/application/http/status"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// MaxLineLength sets the limit of a request line, status line or header line,
	// including its terminator. 0 means no limit.
	MaxLineLength uint

	// MaxContentLength sets the limit of a declared body length. 0 means no limit.
	MaxContentLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	MaxLineLength:    0,
	MaxContentLength: 0,
}

var (
	ErrLineTooLong     = errors.New("line length exceeds limit")
	ErrContentTooLarge = errors.New("content length exceeds limit")
)

type MessageDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

// readLine returns the next line with its terminator.
// It returns [io.EOF] only when the stream ended before any byte of the line.
// With MaxLineLength set, it stops reading once the line exceeds the limit.
func (md *MessageDecoder) readLine() (string, error) {
	limit := md.opts.MaxLineLength

	var line []byte
	for {
		chunk, err := md.br.ReadSlice(LF)
		line = append(line, chunk...)

		if limit > 0 && uint(len(line)) > limit {
			return "", ErrLineTooLong
		}

		switch {
		case err == nil:
			return string(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF && len(line) > 0:
			return "", io.ErrUnexpectedEOF
		default:
			return "", err
		}
	}
}

// decodeHeaders reads field lines up to the empty line.
// Lines that are not valid headers are dropped.
func (md *MessageDecoder) decodeHeaders(headers *[]Header) error {
	tmpHeaders := make([]Header, 0)
	for {
		line, err := md.readLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return errors.Wrap(err, "reading line")
		}

		if line == "\r\n" {
			// An empty line. This means that there are no more headers.
			break
		}

		header, err := ParseHeader(strings.TrimSpace(line))
		if err != nil {
			continue
		}

		tmpHeaders = append(tmpHeaders, header)
	}

	*headers = tmpHeaders

	return nil
}

// decodeBody reads exactly the declared content length.
// Without a positive length there is no body and body is left nil.
func (md *MessageDecoder) decodeBody(headers []Header, body *[]byte) error {
	n, ok := contentLength(headers)
	if !ok || n == 0 {
		return nil
	}

	if limit := md.opts.MaxContentLength; limit > 0 && uint64(n) > uint64(limit) {
		return ErrContentTooLarge
	}

	// CopyN grows the buffer with the bytes actually received,
	// so a huge declared length does not allocate up front.
	buf := bytes.NewBuffer(nil)
	if _, err := io.CopyN(buf, md.br, n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrapf(err, "reading %d bytes of body", n)
	}

	*body = buf.Bytes()

	return nil
}

type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// r MUST be a non-nil pointer
func (rd *RequestDecoder) Decode(r *Request) error {
	line, err := rd.readLine()
	if err != nil {
		return errors.Wrap(err, "reading request line")
	}

	r.Method, r.Path, err = parseRequestLine(line)
	if err != nil {
		return err
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	if err := rd.decodeBody(r.Headers, &r.Body); err != nil {
		return errors.Wrap(err, "parsing body")
	}

	return nil
}

// parseRequestLine takes the method and the path from "METHOD PATH VERSION".
// The version token is neither validated nor stored.
func parseRequestLine(line string) (Method, string, error) {
	line = strings.TrimRight(line, string(CRLF))
	parts := strings.SplitN(line, string(SP), 3)

	method, err := ParseMethod(parts[0])
	if err != nil {
		return "", "", err
	}

	if len(parts) < 2 || len(parts[1]) == 0 {
		return "", "", ErrNoPath
	}

	return method, parts[1], nil
}

var ErrMalformedStatusLine = errors.New("status line is malformed")

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// r MUST be a non-nil pointer
//
// Without Content-Length the body runs to the end of the stream,
// as the server closes the connection after every response.
func (rd *ResponseDecoder) Decode(r *Response) error {
	line, err := rd.readLine()
	if err != nil {
		return errors.Wrap(err, "reading status line")
	}

	r.Status, err = ParseStatusLine(line)
	if err != nil {
		return err
	}

	var headers []Header
	if err := rd.decodeHeaders(&headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Headers = nil
	for _, h := range headers {
		r.Headers = append(r.Headers, h.String())
	}

	if len(headers) == 0 {
		// An empty header list is still followed by the whole CRLF CRLF terminator.
		if b, err := rd.br.Peek(len(CRLF)); err == nil && bytes.Equal(b, CRLF) {
			rd.br.Discard(len(CRLF))
		}
	}

	if _, ok := contentLength(headers); ok {
		if err := rd.decodeBody(headers, &r.Body); err != nil {
			return errors.Wrap(err, "parsing body")
		}
		return nil
	}

	b, err := io.ReadAll(rd.br)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	if len(b) > 0 {
		r.Body = b
	}

	return nil
}

// ParseStatusLine parses "HTTP/1.1 200 OK" into a [status.Status].
// The reason phrase may be empty.
func ParseStatusLine(line string) (status.Status, error) {
	line = strings.TrimRight(line, string(CRLF))
	parts := strings.SplitN(line, string(SP), 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return status.Status{}, errors.Wrapf(ErrMalformedStatusLine, "%q", line)
	}

	code, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || len(parts[1]) != 3 {
		return status.Status{}, errors.Wrapf(ErrMalformedStatusLine, "status code %q", parts[1])
	}

	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	return status.Status{Code: uint(code), ReasonPhrase: reason}, nil
}
