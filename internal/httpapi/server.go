package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/log"
)

// Server represents the API web server
type Server struct {
	Logger  log.Logger
	Config  *cfg.Config
	handler *Handler
	server  *http.Server
	port    int
}

// NewServer creates a new API server
func NewServer(logger log.Logger, config *cfg.Config, svc Services, port int) (*Server, error) {
	handler, err := NewHandler(logger, config, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to create API handler: %w", err)
	}
	if port <= 0 {
		port = config.Http.Port
	}
	return &Server{
		Logger:  logger,
		Config:  config,
		handler: handler,
		port:    port,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      handler.Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks until the server is stopped
func (s *Server) Start() error {
	s.Logger.Info(context.Background(), "Starting API server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.Logger.Info(ctx, "Shutting down API server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
