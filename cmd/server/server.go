package main

import (
	"fmt"
	"time"

	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/internal/infrastructure"
)

// Server wires infrastructure, modules, and the HTTP listener together.
type Server struct {
	cfg   *config.Config
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building infrastructure: %w", err)
	}

	modules, err := buildModules(cfg, infra)
	if err != nil {
		return nil, fmt.Errorf("building modules: %w", err)
	}

	router := buildRouter(modules, infra)

	return &Server{
		cfg:   cfg,
		infra: infra,
		http:  newHTTPServer(cfg, router, infra.Logger),
	}, nil
}

// Start brings up the backing systems, waits for them to report ready,
// then begins serving HTTP traffic.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}

	s.infra.Lifecycle.WaitForStartup()
	s.http.Start(s.infra.Lifecycle)

	s.infra.Logger.Info("server started",
		"env", s.cfg.Env(),
		"addr", s.cfg.Server.Addr(),
	)

	return nil
}

// Shutdown cancels the lifecycle context and waits for all shutdown
// hooks, including the HTTP drain, to complete.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.infra.Lifecycle.Shutdown(timeout)
}
