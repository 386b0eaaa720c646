package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/mydos/internal/handler"
	"github.com/teemow/mydos/internal/instrumentation"
)

const (
	// DefaultAddr is the default address of the HTTP server.
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes limits request bodies.
	DefaultMaxBodyBytes = 1 << 20

	// RequestIDHeader carries a caller-supplied request id.
	RequestIDHeader = "X-Request-Id"
)

// EventHandler is the part of handler.Handler the server needs.
type EventHandler interface {
	Handle(ctx context.Context, ev handler.Event) handler.Response
}

// Config configures an HTTPServer.
type Config struct {
	Addr         string
	Handler      EventHandler
	Health       *HealthChecker
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// HTTPServer serves the request handler over HTTP.
type HTTPServer struct {
	handler      EventHandler
	health       *HealthChecker
	maxBodyBytes int64
	logger       *slog.Logger

	mu         sync.Mutex
	addr       string
	httpServer *http.Server
}

// New creates an HTTPServer.
func New(cfg Config) (*HTTPServer, error) {
	if cfg.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	s := &HTTPServer{
		handler:      cfg.Handler,
		health:       cfg.Health,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       cfg.Logger,
		addr:         cfg.Addr,
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.health == nil {
		s.health = NewHealthChecker()
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Health returns the server's health checker.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the server mux: health endpoints plus the request handler
// on every other path.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)
	mux.Handle("/", instrumentation.WrapHandler(http.HandlerFunc(s.serveEvent), "mydos"))
	return mux
}

func (s *HTTPServer) serveEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := ToEvent(r, s.maxBodyBytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := s.handler.Handle(r.Context(), ev)
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

// ToEvent converts an HTTP request into a handler event. Only the first
// value of each query parameter is kept.
func ToEvent(r *http.Request, maxBodyBytes int64) (handler.Event, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return handler.Event{}, fmt.Errorf("failed to read request body: %w", err)
		}
		if int64(len(body)) > maxBodyBytes {
			return handler.Event{}, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
		}
	}

	var query map[string]string
	if values := r.URL.Query(); len(values) > 0 {
		query = make(map[string]string, len(values))
		for k, v := range values {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
	}

	return handler.Event{
		Method:          r.Method,
		Resource:        r.URL.Path,
		QueryParameters: query,
		Body:            string(body),
		RequestID:       r.Header.Get(RequestIDHeader),
	}, nil
}

// Start binds the configured address and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown fails readiness, then drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")
	return srv.Shutdown(ctx)
}

// Addr returns the server address. After Start it is the bound address.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
