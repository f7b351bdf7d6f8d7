package server

import (
	"time"

	"tiny-http/application/http"
)

type Options struct {
	Decode  http.DecodeOptions
	Timeout TimeoutOptions

	// MaxConnections bounds the connections served at once.
	// 0 means no limit, one worker per accepted connection.
	MaxConnections uint
}

// A zero timeout means no deadline.
type TimeoutOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}
