package main

import (
	"net/http"

	"github.com/gaslens/gaslens/internal/api"
	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/internal/infrastructure"
	"github.com/gaslens/gaslens/pkg/handlers"
	"github.com/gaslens/gaslens/pkg/middleware"
	"github.com/gaslens/gaslens/pkg/module"
	"github.com/gaslens/gaslens/web/scalar"
)

// Modules holds the HTTP modules mounted on the root router.
type Modules struct {
	API  *module.Module
	Docs *module.Module
}

func buildModules(cfg *config.Config, infra *infrastructure.Infrastructure) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	docsModule := scalar.NewModule("/docs", cfg.API.BasePath+"/openapi.json")
	docsModule.Use(middleware.Logger(infra.Logger))

	return &Modules{API: apiModule, Docs: docsModule}, nil
}

func buildRouter(modules *Modules, infra *infrastructure.Infrastructure) http.Handler {
	router := module.NewRouter()

	router.Mount(modules.API)
	router.Mount(modules.Docs)

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}

		if err := infra.Database.Ready(r.Context()); err != nil {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}

		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	return router
}
