package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gaslens/gaslens/pkg/flow"
)

// StageTrend identifies the historical trend analysis stage.
const StageTrend = "trend_analysis"

// trendDatasets is how many recent datasets the chronological comparison
// covers.
const trendDatasets = 2

// trendStage analyzes cached historical datasets: list the available
// datasets, take the two most recent, summarize each, then combine the
// summaries into a comparative report. Eligible from the start of a
// historical run and independent of the category/contract chain, so it may
// run concurrently with it.
type trendStage struct {
	rt *Runtime
}

func (st *trendStage) ID() string { return StageTrend }

func (st *trendStage) Ready(s *State) bool {
	return s.Timeframe.Historical()
}

func (st *trendStage) Tasks(s *State) []flow.Task[State] {
	return []flow.Task[State]{{
		Run: st.analyze,
	}}
}

func (st *trendStage) analyze(ctx context.Context) (flow.Delta[State], error) {
	datasets, err := st.rt.Metrics.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	if len(datasets) < trendDatasets {
		return nil, flow.Failf(
			flow.KindPermanent,
			"%w: need %d datasets, found %d", ErrInvalidUpstream, trendDatasets, len(datasets),
		)
	}

	// datasets arrive newest first
	recent := datasets[:trendDatasets]

	overviews := make([]DatasetOverview, len(recent))
	group, gctx := errgroup.WithContext(ctx)
	for i, name := range recent {
		group.Go(func() error {
			summary, err := st.rt.Metrics.DatasetOverview(gctx, name)
			if err != nil {
				return fmt.Errorf("dataset overview %s: %w", name, err)
			}
			overviews[i] = DatasetOverview{Name: name, Summary: summary}

			st.rt.Logger.InfoContext(
				gctx, "dataset analyzed",
				"dataset", name,
			)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	combined, err := st.rt.Metrics.CombinedAnalysis(ctx, overviews)
	if err != nil {
		return nil, fmt.Errorf("combined analysis: %w", err)
	}

	return &trendDelta{report: &TrendReport{
		Datasets:    recent,
		Overviews:   overviews,
		Combined:    combined,
		GeneratedAt: time.Now(),
	}}, nil
}

func (st *trendStage) Verify(s *State, d flow.Delta[State]) error {
	delta, ok := d.(*trendDelta)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWrongDelta, StageTrend)
	}
	if delta.report.Combined == "" {
		return fmt.Errorf("%w: empty combined analysis", ErrInvalidUpstream)
	}
	if len(delta.report.Overviews) != trendDatasets {
		return fmt.Errorf(
			"%w: expected %d overviews, got %d",
			ErrInvalidUpstream, trendDatasets, len(delta.report.Overviews),
		)
	}
	return nil
}

// trendDelta writes the historical trend report.
type trendDelta struct {
	report *TrendReport
}

func (d *trendDelta) Apply(s *State) error {
	return s.setTrend(d.report)
}

func (d *trendDelta) Fields() map[string]any {
	return map[string]any{
		"datasets": d.report.Datasets,
	}
}
