package server

import (
	"context"
	"log/slog"

	"tiny-http/application/http"
	"tiny-http/transport"

	"github.com/pkg/errors"
)

// HandleFunc produces exactly one response for a request. It must not return nil.
type HandleFunc func(c *HandleContext, request *http.Request) *http.Response

type HandleContext struct {
	ctx context.Context

	remoteAddr transport.Addr
	logger     *slog.Logger

	request *http.Request
}

func (c *HandleContext) doHandle(handle HandleFunc) (res *http.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("handler panicked: %v", e)
		}
	}()

	response := handle(c, c.request)
	if response == nil {
		return nil, errors.New("nil response is forbidden")
	}

	return response, nil
}

func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }
func (c *HandleContext) Context() context.Context   { return c.ctx }

// Logger carries the connection's attributes.
func (c *HandleContext) Logger() *slog.Logger { return c.logger }
