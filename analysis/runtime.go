package analysis

import (
	"context"
	"log/slog"
	"time"
)

// CategoryDistribution is the raw category-share payload from the metrics
// provider.
type CategoryDistribution struct {
	Chain        string
	Timeframe    Timeframe
	Shares       map[string]float64
	TotalFeesUSD float64
}

// ContractFees is one raw contract entry from the metrics provider, before
// share percentages are computed.
type ContractFees struct {
	Address string
	Project string
	Name    string
	FeesUSD float64
	TxCount int64
}

// MetricsProvider is the data-fetch boundary the analysis stages call through
// the tool invocation adapter. Implementations classify failures with
// flow.Fail so the validation gate can apply its retry policy.
type MetricsProvider interface {
	CategoryDistribution(ctx context.Context, chain string, timeframe Timeframe) (*CategoryDistribution, error)
	TopContracts(ctx context.Context, chain, category string, limit int) ([]ContractFees, error)

	ListDatasets(ctx context.Context) ([]string, error)
	DatasetOverview(ctx context.Context, name string) (string, error)
	CombinedAnalysis(ctx context.Context, overviews []DatasetOverview) (string, error)
}

// SynthesisInput is the structured input handed to the reasoning service.
type SynthesisInput struct {
	Chains          []string                   `json:"chains"`
	Timeframe       Timeframe                  `json:"timeframe"`
	CategoryReports map[string]*CategoryReport `json:"category_reports"`
	ContractReports map[string]*ContractReport `json:"contract_reports"`
	Trend           *TrendReport               `json:"trend,omitempty"`
}

// Synthesizer produces the final strategic report from structured input. It
// is treated as a slow, potentially flaky remote service; implementations
// classify failures with flow.Fail.
type Synthesizer interface {
	Synthesize(ctx context.Context, input SynthesisInput) (*SynthesisReport, error)
}

// Policy holds the configurable workflow defaults. These mirror the metrics
// provider's conventions and are policy, not contract: hosts may tune them.
type Policy struct {
	// TopCategories is how many top categories per chain fan out into
	// contract analysis.
	TopCategories int
	// ContractLimit is how many ranked contracts each contract report holds.
	ContractLimit int
	// Retries bounds retry attempts per task beyond the first.
	Retries int
	// Backoff is the delay before each retry.
	Backoff time.Duration
	// Parallelism caps concurrent tasks across a run.
	Parallelism int
}

// DefaultPolicy returns the stock workflow policy.
func DefaultPolicy() Policy {
	return Policy{
		TopCategories: 2,
		ContractLimit: 10,
		Retries:       2,
		Backoff:       500 * time.Millisecond,
		Parallelism:   5,
	}
}

// Runtime bundles the dependencies the workflow stages require. It is
// constructed by higher-level composition code and scoped to one run when the
// metrics provider carries a per-run cache.
type Runtime struct {
	Metrics     MetricsProvider
	Synthesizer Synthesizer
	Policy      Policy
	Logger      *slog.Logger
}
