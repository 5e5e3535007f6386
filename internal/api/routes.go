package api

import (
	"net/http"

	"github.com/gaslens/gaslens/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(mux,
		domain.Runs.Handler().Routes(),
	)
}
