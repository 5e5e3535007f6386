// Package api assembles the domain systems into an HTTP module mounted
// at the configured base path.
package api

import (
	"fmt"
	"net/http"

	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/internal/infrastructure"
	"github.com/gaslens/gaslens/pkg/middleware"
	"github.com/gaslens/gaslens/pkg/module"
	"github.com/gaslens/gaslens/pkg/openapi"
)

func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, fmt.Errorf("building api runtime: %w", err)
	}

	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	spec, err := buildSpec(cfg)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(infra.Logger))
	m.Use(middleware.MaxBody(cfg.API.MaxBodySizeBytes()))

	return m, nil
}
