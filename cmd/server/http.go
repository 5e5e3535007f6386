package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/pkg/lifecycle"
)

type httpServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func newHTTPServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *httpServer {
	return &httpServer{
		server: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		},
		shutdownTimeout: cfg.ShutdownTimeoutDuration(),
		logger:          logger.With("system", "http"),
	}
}

// Start begins serving and registers a shutdown hook that drains
// in-flight requests when the lifecycle context is cancelled.
func (h *httpServer) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Error("http shutdown", "error", err)
		}
	})

	go func() {
		h.logger.Info("listening", "addr", h.server.Addr)

		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("http server", "error", err)
		}
	}()
}
