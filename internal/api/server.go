package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/weekly-ranker/pkg/config"
	"github.com/wonny/weekly-ranker/pkg/logger"
)

// Server serves the ranking API and owns the lifetime of triggered runs
// ⭐ SSOT: API 서버 시작/종료 순서는 이 파일에서만
type Server struct {
	httpServer *http.Server
	routes     Routes
	logger     *logger.Logger
	env        string
}

// New builds the router for routes and wraps it in an HTTP server on cfg.Port
func New(cfg *config.Config, routes Routes, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(routes, log),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		routes: routes,
		logger: log.WithModule("api"),
		env:    cfg.Env,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.WithFields(map[string]interface{}{
		"addr":    ln.Addr().String(),
		"env":     s.env,
		"runs":    s.routes.Runs != nil,
		"metrics": s.routes.Metrics != nil,
	}).Info("Starting API server")

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, disconnects websocket clients and
// waits for triggered runs to return. Runs are not cancelled here; the
// context given to the run handler controls that.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	// hijacked websocket connections are not closed by http.Server.Shutdown
	if s.routes.Hub != nil {
		s.routes.Hub.Close()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if s.routes.Runs == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.routes.Runs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Triggered runs finished")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("triggered run still active: %w", ctx.Err())
	}
}
