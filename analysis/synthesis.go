package analysis

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/gaslens/gaslens/pkg/flow"
)

// StageSynthesis identifies the final strategic synthesis stage.
const StageSynthesis = "strategic_synthesis"

// synthesisStage delegates to the reasoning service once every upstream
// report is in place: all category reports, all contract fan-out pairs, and
// the trend report when the run is historical.
type synthesisStage struct {
	rt *Runtime
}

func (st *synthesisStage) ID() string { return StageSynthesis }

func (st *synthesisStage) Ready(s *State) bool {
	if !s.Contracted(st.rt.Policy.TopCategories) {
		return false
	}
	if s.Timeframe.Historical() && s.Trend == nil {
		return false
	}
	return true
}

func (st *synthesisStage) Tasks(s *State) []flow.Task[State] {
	// report entries are overwrite-once, so sharing them with the task is
	// safe; the maps themselves are copied to keep the snapshot stable
	input := SynthesisInput{
		Chains:          s.UniqueChains(),
		Timeframe:       s.Timeframe,
		CategoryReports: maps.Clone(s.CategoryReports),
		ContractReports: maps.Clone(s.ContractReports),
		Trend:           s.Trend,
	}

	return []flow.Task[State]{{
		Run: func(ctx context.Context) (flow.Delta[State], error) {
			return st.synthesize(ctx, input)
		},
	}}
}

func (st *synthesisStage) synthesize(ctx context.Context, input SynthesisInput) (flow.Delta[State], error) {
	report, err := st.rt.Synthesizer.Synthesize(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	st.rt.Logger.InfoContext(
		ctx, "synthesis produced",
		"hypotheses", len(report.GrowthHypotheses),
		"recommendations", len(report.Recommendations),
	)

	return &synthesisDelta{report: report}, nil
}

// Verify requires every report section to be populated.
func (st *synthesisStage) Verify(s *State, d flow.Delta[State]) error {
	delta, ok := d.(*synthesisDelta)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWrongDelta, StageSynthesis)
	}

	report := delta.report
	sections := map[string]bool{
		"executive_summary":     report.ExecutiveSummary != "",
		"competitive_landscape": report.CompetitiveLandscape != "",
		"category_insights":     report.CategoryInsights != "",
		"contract_insights":     report.ContractInsights != "",
		"growth_hypotheses":     len(report.GrowthHypotheses) > 0,
		"recommendations":       len(report.Recommendations) > 0,
		"risk_assessment":       report.RiskAssessment != "",
		"next_steps":            len(report.NextSteps) > 0,
	}
	for section, present := range sections {
		if !present {
			return fmt.Errorf("%w: missing section %s", ErrSynthesis, section)
		}
	}
	return nil
}

// synthesisDelta writes the final report, at most once per run.
type synthesisDelta struct {
	report *SynthesisReport
}

func (d *synthesisDelta) Apply(s *State) error {
	return s.setSynthesis(d.report)
}

func (d *synthesisDelta) Fields() map[string]any {
	return map[string]any{
		"executive_summary": d.report.ExecutiveSummary,
		"generated_at":      d.report.GeneratedAt,
	}
}
