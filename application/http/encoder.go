package http

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type MessageEncoder struct {
	bw *bufio.Writer
}

func (me *MessageEncoder) writeLine(line string) error {
	if _, err := me.bw.WriteString(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := me.bw.Write(CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (me *MessageEncoder) writeBody(body []byte) error {
	if _, err := me.bw.Write(body); err != nil {
		return errors.Wrap(err, "writing body")
	}

	if err := me.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing message")
	}

	return nil
}

type ResponseEncoder struct{ MessageEncoder }

func NewResponseEncoder(w io.Writer) *ResponseEncoder {
	return &ResponseEncoder{
		MessageEncoder{bw: bufio.NewWriter(w)},
	}
}

// Encode writes
//
//	HTTP/1.1 {code} {text}\r\n{headers joined by \r\n}\r\n\r\n{body}
//
// No header is synthesized. An empty header list still gets the full terminator.
func (re *ResponseEncoder) Encode(response *Response) error {
	if err := re.writeLine(response.Status.Line(Version)); err != nil {
		return errors.Wrap(err, "encoding status line")
	}

	if err := re.writeLine(strings.Join(response.Headers, string(CRLF))); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if err := re.writeLine(""); err != nil {
		return errors.Wrap(err, "encoding header terminator")
	}

	return re.writeBody(response.Body)
}

type RequestEncoder struct{ MessageEncoder }

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{
		MessageEncoder{bw: bufio.NewWriter(w)},
	}
}

// Encode writes the request line, one line per header, the empty line and the body.
// Content-Length is not added; callers sending a body set it themselves.
func (re *RequestEncoder) Encode(request *Request) error {
	line := string(request.Method) + string(SP) + request.Path + string(SP) + Version
	if err := re.writeLine(line); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	for _, h := range request.Headers {
		if err := re.writeLine(h.String()); err != nil {
			return errors.Wrap(err, "encoding header")
		}
	}

	if err := re.writeLine(""); err != nil {
		return errors.Wrap(err, "encoding header terminator")
	}

	return re.writeBody(request.Body)
}
