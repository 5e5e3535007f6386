package api

import (
	"fmt"

	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/internal/infrastructure"
	"github.com/gaslens/gaslens/internal/synthesis"
	"github.com/gaslens/gaslens/internal/tools"
	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/pkg/pagination"
)

// Runtime bundles the shared infrastructure with the external clients
// the run workflows depend on.
type Runtime struct {
	*infrastructure.Infrastructure
	Metrics     analysis.MetricsProvider
	Synthesizer analysis.Synthesizer
	Pagination  pagination.Config
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	metrics, err := tools.New(&cfg.Tools, infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("initializing metrics client: %w", err)
	}

	synthesizer, err := synthesis.New(&cfg.Synthesis, infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("initializing synthesis client: %w", err)
	}

	return &Runtime{
		Infrastructure: infra,
		Metrics:        metrics,
		Synthesizer:    synthesizer,
		Pagination:     cfg.API.Pagination,
	}, nil
}
