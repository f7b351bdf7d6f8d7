package server

import (
	"context"
	"io"
	"log/slog"

	"tiny-http/application/http"
	"tiny-http/transport"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type conn struct {
	con transport.Conn
	id  uuid.UUID

	handle HandleFunc
	clock  clock.Clock

	logger *slog.Logger

	opts Options
}

var errDropped = errors.New("connection dropped before request")

func (c *conn) start(ctx context.Context) {
	c.logger.Debug("accepted connection")

	// Unblocks a worker stuck in read or write when the server shuts down.
	stop := context.AfterFunc(ctx, func() { c.con.Close() })
	defer func() {
		c.logger.Debug("closing connection")
		if !stop() {
			return
		}
		if err := c.con.Close(); err != nil {
			c.logger.Error("error when closing connection", "error", err)
		}
	}()

	err := c.serve(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		c.logger.Debug("connection closed by server shutdown")
	case errors.Is(err, errDropped):
		c.logger.Debug(err.Error())
	case errors.Is(err, transport.ErrDeadLineExceeded):
		c.logger.Info("write timeout exceeded")
	case errors.Is(err, transport.ErrConnClosed):
		c.logger.Error("unexpected connection closure")
	default:
		c.logger.Error("unknown error occured", "error", err)
	}
}

// serve reads one request, handles it and writes one response.
// A request that fails to parse is answered with a 500 carrying the error.
func (c *conn) serve(ctx context.Context) error {
	started := c.clock.Now()

	var response *http.Response

	request, err := c.readRequest()
	if err != nil {
		if isDropped(err) {
			return errDropped
		}

		c.logger.Warn("failed to parse request", "error", err)
		response = http.Error(err)
	} else {
		hctx := &HandleContext{
			ctx:        ctx,
			remoteAddr: c.con.RemoteAddr(),
			logger:     c.logger,
			request:    request,
		}
		response, err = hctx.doHandle(c.handle)
		if err != nil {
			c.logger.Error("unexpected error while handling request", "error", err)
			response = http.Error(err)
		}
	}

	if err := c.writeResponse(response); err != nil {
		return errors.Wrap(err, "unexpected error while writing response")
	}

	attrs := []any{
		"status", response.Status.Code,
		"duration", c.clock.Since(started),
	}
	if request != nil {
		attrs = append(attrs, "method", request.Method, "path", request.Path)
	}
	c.logger.Info("served request", attrs...)

	return nil
}

// isDropped reports whether the client went away before sending anything,
// or the connection cannot carry a response anymore.
func isDropped(err error) bool {
	return errors.Cause(err) == io.EOF || errors.Is(err, transport.ErrConnClosed)
}

func (c *conn) readRequest() (*http.Request, error) {
	if timeout := c.opts.Timeout.ReadTimeout; timeout > 0 {
		c.con.SetReadDeadLine(c.clock.Now().Add(timeout))
	}

	var request http.Request
	if err := http.NewRequestDecoder(c.con, c.opts.Decode).Decode(&request); err != nil {
		return nil, err
	}

	return &request, nil
}

func (c *conn) writeResponse(response *http.Response) error {
	if timeout := c.opts.Timeout.WriteTimeout; timeout > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(timeout))
	}

	return http.NewResponseEncoder(c.con).Encode(response)
}
