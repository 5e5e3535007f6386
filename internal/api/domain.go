package api

import (
	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/internal/runs"
)

// Domain holds the business systems exposed through the API module.
type Domain struct {
	Runs runs.System
}

func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	return &Domain{
		Runs: runs.New(
			runtime.Database.Connection(),
			runtime.Metrics,
			runtime.Synthesizer,
			cfg.Analysis.Policy(),
			runtime.Storage,
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
