package analysis

import (
	"cmp"
	"slices"
	"time"
)

// Number of leading entries summed into a concentration ratio, matching the
// upstream metrics convention: top 3 for categories, top 5 for contracts.
const (
	categoryConcentrationN = 3
	contractConcentrationN = 5
)

// CategoryReport is the category-level gas fee distribution for one chain.
type CategoryReport struct {
	Chain            string             `json:"chain"`
	Timeframe        Timeframe          `json:"timeframe"`
	TopCategory      string             `json:"top_category"`
	TopCategoryShare float64            `json:"top_category_share"`
	Breakdown        map[string]float64 `json:"breakdown"`
	TotalFeesUSD     float64            `json:"total_fees_usd"`
	Concentration    float64            `json:"concentration"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// RankedContract is one contract in a top-contracts ranking.
type RankedContract struct {
	Address string  `json:"address"`
	Project string  `json:"project,omitempty"`
	Name    string  `json:"name,omitempty"`
	FeesUSD float64 `json:"fees_usd"`
	Share   float64 `json:"share"`
	TxCount int64   `json:"tx_count,omitempty"`
}

// ContractReport ranks the top contracts by gas fees within one
// (chain, category) pair.
type ContractReport struct {
	Chain         string           `json:"chain"`
	Category      string           `json:"category"`
	Timeframe     Timeframe        `json:"timeframe"`
	Contracts     []RankedContract `json:"contracts"`
	TopShare      float64          `json:"top_share"`
	Concentration float64          `json:"concentration"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// DatasetOverview is the per-dataset summary produced during trend analysis.
type DatasetOverview struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// TrendReport compares the two most recent historical datasets.
type TrendReport struct {
	Datasets    []string          `json:"datasets"`
	Overviews   []DatasetOverview `json:"overviews"`
	Combined    string            `json:"combined"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// SynthesisReport is the final strategic report produced by the reasoning
// service from the structured analysis reports.
type SynthesisReport struct {
	ExecutiveSummary     string    `json:"executive_summary"`
	CompetitiveLandscape string    `json:"competitive_landscape"`
	CategoryInsights     string    `json:"category_insights"`
	ContractInsights     string    `json:"contract_insights"`
	GrowthHypotheses     []string  `json:"growth_hypotheses"`
	Recommendations      []string  `json:"recommendations"`
	RiskAssessment       string    `json:"risk_assessment"`
	NextSteps            []string  `json:"next_steps"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// TopCategories returns the categories jointly covering the largest share of
// fees, up to count, ties broken by lexical order of category name.
func TopCategories(breakdown map[string]float64, count int) []string {
	type entry struct {
		category string
		share    float64
	}

	entries := make([]entry, 0, len(breakdown))
	for category, share := range breakdown {
		entries = append(entries, entry{category, share})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(b.share, a.share); c != 0 {
			return c
		}
		return cmp.Compare(a.category, b.category)
	})

	if count > len(entries) {
		count = len(entries)
	}

	categories := make([]string, 0, count)
	for _, e := range entries[:count] {
		categories = append(categories, e.category)
	}
	return categories
}

// concentration sums the n largest values.
func concentration(values []float64, n int) float64 {
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b float64) int { return cmp.Compare(b, a) })
	if n > len(sorted) {
		n = len(sorted)
	}
	var total float64
	for _, v := range sorted[:n] {
		total += v
	}
	return total
}

// shareValues extracts the share values from a breakdown.
func shareValues(breakdown map[string]float64) []float64 {
	values := make([]float64, 0, len(breakdown))
	for _, v := range breakdown {
		values = append(values, v)
	}
	return values
}
