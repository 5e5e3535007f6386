package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gaslens/gaslens/analysis"
)

const (
	EnvAnalysisTopCategories = "GASLENS_ANALYSIS_TOP_CATEGORIES"
	EnvAnalysisContractLimit = "GASLENS_ANALYSIS_CONTRACT_LIMIT"
	EnvAnalysisRetries       = "GASLENS_ANALYSIS_RETRIES"
	EnvAnalysisBackoff       = "GASLENS_ANALYSIS_BACKOFF"
	EnvAnalysisParallelism   = "GASLENS_ANALYSIS_PARALLELISM"
)

// AnalysisConfig holds workflow policy settings.
type AnalysisConfig struct {
	TopCategories int    `toml:"top_categories"`
	ContractLimit int    `toml:"contract_limit"`
	Retries       int    `toml:"retries"`
	Backoff       string `toml:"backoff"`
	Parallelism   int    `toml:"parallelism"`
}

// Policy converts the config into an analysis workflow policy.
func (c *AnalysisConfig) Policy() analysis.Policy {
	policy := analysis.Policy{
		TopCategories: c.TopCategories,
		ContractLimit: c.ContractLimit,
		Retries:       c.Retries,
		Parallelism:   c.Parallelism,
	}
	if d, err := time.ParseDuration(c.Backoff); err == nil {
		policy.Backoff = d
	}
	return policy
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.TopCategories != 0 {
		c.TopCategories = overlay.TopCategories
	}
	if overlay.ContractLimit != 0 {
		c.ContractLimit = overlay.ContractLimit
	}
	if overlay.Retries != 0 {
		c.Retries = overlay.Retries
	}
	if overlay.Backoff != "" {
		c.Backoff = overlay.Backoff
	}
	if overlay.Parallelism != 0 {
		c.Parallelism = overlay.Parallelism
	}
}

func (c *AnalysisConfig) loadDefaults() {
	defaults := analysis.DefaultPolicy()
	if c.TopCategories == 0 {
		c.TopCategories = defaults.TopCategories
	}
	if c.ContractLimit == 0 {
		c.ContractLimit = defaults.ContractLimit
	}
	if c.Retries == 0 {
		c.Retries = defaults.Retries
	}
	if c.Backoff == "" {
		c.Backoff = defaults.Backoff.String()
	}
	if c.Parallelism == 0 {
		c.Parallelism = defaults.Parallelism
	}
}

func (c *AnalysisConfig) loadEnv() {
	setInt := func(name string, field *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*field = n
			}
		}
	}

	setInt(EnvAnalysisTopCategories, &c.TopCategories)
	setInt(EnvAnalysisContractLimit, &c.ContractLimit)
	setInt(EnvAnalysisRetries, &c.Retries)
	setInt(EnvAnalysisParallelism, &c.Parallelism)

	if v := os.Getenv(EnvAnalysisBackoff); v != "" {
		c.Backoff = v
	}
}

func (c *AnalysisConfig) validate() error {
	if c.TopCategories < 1 {
		return fmt.Errorf("top_categories must be positive")
	}
	if c.ContractLimit < 1 {
		return fmt.Errorf("contract_limit must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive")
	}
	if _, err := time.ParseDuration(c.Backoff); err != nil {
		return fmt.Errorf("invalid backoff: %w", err)
	}
	return nil
}
