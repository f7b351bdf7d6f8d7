// Package router maps requests to the server's fixed set of routes.
package router

import (
	"log/slog"
	"strings"

	"tiny-http/application/http"
	"tiny-http/application/http/server"
)

const (
	contentTypeText   = "text/plain"
	contentTypeBinary = "application/octet-stream"

	echoPrefix  = "/echo/"
	filesPrefix = "/files/"
)

// Files is the storage behind /files/. Any error reads as not found.
type Files interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
}

type Router struct {
	files Files
}

func New(files Files) *Router {
	return &Router{files: files}
}

var _ server.HandleFunc = (*Router)(nil).Handle

// Handle runs the first route matching the request's method and normalized path.
//
//	GET  /               empty 200
//	GET  /user-agent     the User-Agent header, "None" if absent
//	GET  /echo/{value}   value as is
//	GET  /files/{name}   file content, 404 if it cannot be read
//	POST /files/{name}   201 once written, 404 if it cannot be written
//
// Anything else is 404.
func (rt *Router) Handle(c *server.HandleContext, request *http.Request) *http.Response {
	return rt.dispatch(c.Logger(), request)
}

func (rt *Router) dispatch(logger *slog.Logger, request *http.Request) *http.Response {
	path := normalize(request.Path)
	get := request.Method == http.MethodGet

	switch {
	case get && path == "/":
		return http.EmptyOK()
	case get && path == "/user-agent":
		return userAgent(request)
	case get && strings.HasPrefix(path, echoPrefix):
		return echo(strings.TrimPrefix(path, echoPrefix))
	case get && strings.HasPrefix(path, filesPrefix):
		return rt.readFile(logger, strings.TrimPrefix(path, filesPrefix))
	case request.Method == http.MethodPost && strings.HasPrefix(path, filesPrefix):
		return rt.writeFile(logger, strings.TrimPrefix(path, filesPrefix), request.Body)
	}

	return http.NotFound()
}

// normalize strips a single trailing slash. "/" is kept.
func normalize(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}

func userAgent(request *http.Request) *http.Response {
	ua, ok := request.Header("user-agent")
	if !ok {
		ua = "None"
	}
	return text(ua)
}

func echo(value string) *http.Response { return text(value) }

func text(body string) *http.Response {
	return http.OK(http.ContentHeaders(contentTypeText, len(body)), []byte(body))
}

func (rt *Router) readFile(logger *slog.Logger, name string) *http.Response {
	data, err := rt.files.Read(name)
	if err != nil {
		logger.Debug("failed to read file", "name", name, "error", err)
		return http.NotFound()
	}

	return http.OK(http.ContentHeaders(contentTypeBinary, len(data)), data)
}

func (rt *Router) writeFile(logger *slog.Logger, name string, body []byte) *http.Response {
	if body == nil {
		body = []byte{}
	}

	if err := rt.files.Write(name, body); err != nil {
		// Write failures answer 404, same as read failures.
		logger.Debug("failed to write file", "name", name, "error", err)
		return http.NotFound()
	}

	return http.Created()
}
