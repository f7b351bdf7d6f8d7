// Package tcp serves [transport.Conn] over the operating system's TCP sockets.
package tcp

import (
	"context"
	"net"
	"os"
	"time"

	"tiny-http/transport"

	"github.com/pkg/errors"
)

type listener struct {
	l *net.TCPListener
}

var _ transport.ConnListener = (*listener)(nil)

// Listen binds addr, e.g. "127.0.0.1:4221". Port 0 picks a free port.
func Listen(ctx context.Context, addr string) (*listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}

	return &listener{l: l.(*net.TCPListener)}, nil
}

func (l *listener) Addr() transport.Addr { return l.l.Addr() }

// Accept blocks until a connection arrives, ctx is done or the listener is closed.
func (l *listener) Accept(ctx context.Context) (transport.Conn, error) {
	// Clear a deadline left by an earlier cancelled Accept.
	if err := l.l.SetDeadline(time.Time{}); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "clearing accept deadline")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.l.SetDeadline(time.Now())
		case <-done:
		}
	}()

	c, err := l.l.AcceptTCP()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "accepting connection")
	}

	return &conn{c: c}, nil
}

func (l *listener) Close() error {
	if err := l.l.Close(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrConnListenerClosed
		}
		return err
	}
	return nil
}

// Dialer connects to TCP addresses.
type Dialer struct {
	d net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	c, err := d.d.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return &conn{c: c.(*net.TCPConn)}, nil
}

type conn struct {
	c *net.TCPConn
}

var _ transport.Conn = (*conn)(nil)

// Read returns io.EOF once the peer has closed.
func (c *conn) Read(p []byte) (int, error) {
	n, err := c.c.Read(p)
	return n, mapErr(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.c.Write(p)
	return n, mapErr(err)
}

func (c *conn) Close() error { return mapErr(c.c.Close()) }

func (c *conn) LocalAddr() transport.Addr  { return c.c.LocalAddr() }
func (c *conn) RemoteAddr() transport.Addr { return c.c.RemoteAddr() }

func (c *conn) SetReadDeadLine(t time.Time)  { c.c.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { c.c.SetWriteDeadline(t) }

// mapErr turns net errors into the transport sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return transport.ErrDeadLineExceeded
	case errors.Is(err, net.ErrClosed):
		return transport.ErrConnClosed
	}
	return err
}
