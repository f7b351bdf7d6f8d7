package http

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	CR byte = '\r'
	LF byte = '\n'
	SP byte = ' '
)

var CRLF = []byte{CR, LF}

// Version is the only protocol version written on status lines.
const Version = "HTTP/1.1"

var (
	ErrUnsupportedOrMissingMethod = errors.New("unsupported or missing http method")
	ErrNoPath                     = errors.New("failed to parse path")
	ErrUnsupportedHeaderFormat    = errors.New("unsupported header format")
)

// MethodError reports the request-line token that failed to parse as a [Method].
// It matches [ErrUnsupportedOrMissingMethod] with errors.Is.
type MethodError struct {
	Token string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("failed to parse http method: %q", e.Token)
}

func (e *MethodError) Is(target error) bool {
	return target == ErrUnsupportedOrMissingMethod
}
