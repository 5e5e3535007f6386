package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gaslens/gaslens/pkg/flow"
)

// StageCategory identifies the category distribution stage.
const StageCategory = "category_analysis"

// shareTolerance is the allowed deviation of a distribution's share sum
// from 100%.
const shareTolerance = 0.5

// categoryStage fetches the category-level gas fee distribution, fanning out
// one task per requested chain so a slow or failing chain never blocks the
// others' reports from landing.
type categoryStage struct {
	rt *Runtime
}

func (st *categoryStage) ID() string { return StageCategory }

// Ready always holds: category analysis starts the revenue chain.
func (st *categoryStage) Ready(s *State) bool { return true }

func (st *categoryStage) Tasks(s *State) []flow.Task[State] {
	timeframe := s.Timeframe
	chains := s.UniqueChains()

	tasks := make([]flow.Task[State], 0, len(chains))
	for _, chain := range chains {
		tasks = append(tasks, flow.Task[State]{
			Key: chain,
			Run: func(ctx context.Context) (flow.Delta[State], error) {
				return st.analyze(ctx, chain, timeframe)
			},
		})
	}
	return tasks
}

func (st *categoryStage) analyze(ctx context.Context, chain string, timeframe Timeframe) (flow.Delta[State], error) {
	dist, err := st.rt.Metrics.CategoryDistribution(ctx, chain, timeframe)
	if err != nil {
		return nil, fmt.Errorf("category distribution %s: %w", chain, err)
	}

	top := TopCategories(dist.Shares, 1)
	if len(top) == 0 {
		return nil, flow.Failf(
			flow.KindInvalidData,
			"%w: empty distribution for %s", ErrInvalidUpstream, chain,
		)
	}

	report := &CategoryReport{
		Chain:            chain,
		Timeframe:        timeframe,
		TopCategory:      top[0],
		TopCategoryShare: dist.Shares[top[0]],
		Breakdown:        dist.Shares,
		TotalFeesUSD:     dist.TotalFeesUSD,
		Concentration:    concentration(shareValues(dist.Shares), categoryConcentrationN),
		GeneratedAt:      time.Now(),
	}

	st.rt.Logger.InfoContext(
		ctx, "category distribution fetched",
		"chain", chain,
		"top_category", report.TopCategory,
		"categories", len(report.Breakdown),
	)

	return &categoryDelta{report: report}, nil
}

// Verify checks the distribution is plausible: shares present and summing to
// 100% within tolerance.
func (st *categoryStage) Verify(s *State, d flow.Delta[State]) error {
	delta, ok := d.(*categoryDelta)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWrongDelta, StageCategory)
	}

	report := delta.report
	if len(report.Breakdown) == 0 {
		return fmt.Errorf("%w: empty breakdown for %s", ErrInvalidUpstream, report.Chain)
	}

	var sum float64
	for _, share := range report.Breakdown {
		sum += share
	}
	if math.Abs(sum-100) > shareTolerance {
		return fmt.Errorf(
			"%w: %s shares sum to %.2f", ErrInvalidUpstream, report.Chain, sum,
		)
	}
	return nil
}

// categoryDelta writes one chain's category report.
type categoryDelta struct {
	report *CategoryReport
}

func (d *categoryDelta) Apply(s *State) error {
	return s.setCategoryReport(d.report)
}

func (d *categoryDelta) Fields() map[string]any {
	return map[string]any{
		"chain":              d.report.Chain,
		"top_category":       d.report.TopCategory,
		"top_category_share": d.report.TopCategoryShare,
		"total_fees_usd":     d.report.TotalFeesUSD,
	}
}
