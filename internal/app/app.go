// Package app assembles the service from its parts and runs the HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/guvenlisinav/proctor/internal/conf"
)

// Server wraps the HTTP server together with its wire cleanup.
type Server struct {
	http    *http.Server
	cleanup func()
}

// NewServer 组装依赖并构建 HTTP 服务
func NewServer(bc *conf.Bootstrap) (*Server, error) {
	handler, cleanup, err := wireApp(bc)
	if err != nil {
		return nil, fmt.Errorf("wire app: %w", err)
	}
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cleanup: cleanup,
	}, nil
}

// Run blocks until the listener fails.
func (s *Server) Run() error {
	slog.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases wire resources.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.cleanup()
	return s.http.Shutdown(ctx)
}
