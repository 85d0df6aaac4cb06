package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server for the API surface. Shutdown only drains
// HTTP connections; the batch engine is drained separately by main after the
// listener stops, so in-flight generation work is never cut off by a closing
// socket.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server from the configured timeouts. The write
// timeout must stay generous enough for slow result payloads, but generation
// itself never runs inside a request, so none of these bound a batch.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv}
}

// Start runs the HTTP server in the current goroutine.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests, up to
// the deadline carried by ctx.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
