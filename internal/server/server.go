package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridnoise/tasknet/pkg/engine"
	"github.com/gridnoise/tasknet/pkg/graph"
)

// Server holds the HTTP interface, the database engine, and the graph
// query engine reading from it.
type Server struct {
	Engine *engine.Engine
	Graph  *graph.Engine

	httpServer *http.Server
	authToken  string
}

// NewServer wires the HTTP layer around an already-opened Engine.
func NewServer(eng *engine.Engine, cfg *Config) *Server {
	s := &Server{
		Engine:    eng,
		Graph:     graph.New(eng),
		authToken: cfg.AuthToken,
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Recovery must be outermost to catch everything below it.
	var handler http.Handler = mux
	handler = s.AuthMiddleware(handler)
	handler = s.LoggingMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Run starts serving on addr and blocks until the server stops.
func (s *Server) Run(addr string) error {
	s.httpServer.Addr = addr
	slog.Info("HTTP API listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown drains in-flight requests, then closes the engine.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	return s.Engine.Close()
}
