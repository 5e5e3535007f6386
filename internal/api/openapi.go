package api

import (
	"fmt"
	"maps"

	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/internal/runs"
	"github.com/gaslens/gaslens/pkg/openapi"
)

// buildSpec assembles the OpenAPI document for the mounted API from each
// domain's path and schema contributions.
func buildSpec(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.Docs.Title, cfg.Version)
	spec.SetDescription(cfg.API.Docs.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(runs.Schemas())
	maps.Copy(spec.Paths, runs.Paths())

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshaling openapi spec: %w", err)
	}

	return data, nil
}
