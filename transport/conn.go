// Package transport abstracts the byte streams the HTTP server is served over.
package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrConnClosed is returned when operating on a connection closed on this side,
	// or when writing to a connection whose peer has gone.
	// Reading from a connection closed by the peer returns io.EOF instead.
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrDeadLineExceeded   = errors.New("deadline exceeded")

	ErrConnRefused      = errors.New("connection refused")
	ErrAddrAlreadyInUse = errors.New("address already in use")
	ErrNetUnreachable   = errors.New("network is unreachable")
)

// Addr has the same method set as net.Addr.
type Addr interface {
	Network() string
	String() string
}

type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	// A zero t means no deadline.
	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
	Addr() Addr
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}
