// Package httpserver builds the process HTTP server with the project's
// timeout defaults, overridable from configuration.
package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 2 * time.Minute
)

// Option overrides one of the server defaults.
type Option func(*http.Server)

// WithReadHeaderTimeout bounds how long a client may take to send headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(srv *http.Server) {
		if d > 0 {
			srv.ReadHeaderTimeout = d
		}
	}
}

// WithIdleTimeout bounds how long a keep-alive connection may sit unused.
func WithIdleTimeout(d time.Duration) Option {
	return func(srv *http.Server) {
		if d > 0 {
			srv.IdleTimeout = d
		}
	}
}

// New builds the HTTP server serving handler on addr.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
