// Package server accepts connections and serves one request on each.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tiny-http/transport"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Server struct {
	l transport.ConnListener

	closeListener func()
	wg            sync.WaitGroup

	logger *slog.Logger
	opts   Options

	// Holds a token per connection in service. nil when unbounded.
	slots chan struct{}

	handle HandleFunc
	clock  clock.Clock
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	s := &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		clock:  clock,
	}

	if opts.MaxConnections > 0 {
		s.slots = make(chan struct{}, opts.MaxConnections)
	}

	return s
}

// Start runs the accept loop in the background until Close is called.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.closeListener = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("listening", "addr", s.l.Addr())

		var delay time.Duration
		for {
			if err := s.acquire(ctx); err != nil {
				return
			}

			conn, err := s.acceptConn(ctx)
			if err != nil {
				s.release()
				if errors.Is(err, context.Canceled) {
					return
				}
				if errors.Is(err, transport.ErrConnListenerClosed) {
					s.logger.Info("listener closed")
					return
				}

				delay = nextAcceptDelay(delay)
				s.logger.Error(
					"unexpected error when accepting connection",
					"error", err.Error(),
					"retry_in", delay,
				)

				select {
				case <-ctx.Done():
					return
				case <-s.clock.After(delay):
				}
				continue
			}
			delay = 0

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.release()
				conn.start(ctx)
			}()
		}
	}()
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// nextAcceptDelay doubles the pause between failed accepts, up to maxAcceptDelay.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(prev*2, maxAcceptDelay)
}

func (s *Server) acquire(ctx context.Context) error {
	if s.slots == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.slots <- struct{}{}:
		return nil
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

func (s *Server) acceptConn(ctx context.Context) (*conn, error) {
	con, err := s.l.Accept(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listening for connection")
	}

	id := uuid.New()
	conn := &conn{
		con:    con,
		id:     id,
		handle: s.handle,
		opts:   s.opts,
		logger: s.logger.With("conn", con.RemoteAddr().String(), "conn_id", id.String()),
		clock:  s.clock,
	}

	return conn, nil
}

// Close stops accepting, closes the connections in service and waits for their workers.
// The listener itself is closed too.
func (s *Server) Close() error {
	if s.closeListener != nil {
		s.closeListener()
	}
	s.wg.Wait()

	if err := s.l.Close(); err != nil && !errors.Is(err, transport.ErrConnListenerClosed) {
		return errors.Wrap(err, "closing listener")
	}

	return nil
}
