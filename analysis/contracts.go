package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/gaslens/gaslens/pkg/flow"
)

// StageContracts identifies the top-contracts stage.
const StageContracts = "contract_analysis"

// contractStage ranks the top contracts by gas fees for each
// (chain, top-category) pair. It fans out one task per pair; pairs are
// derived from the category reports, so the stage only becomes eligible once
// every requested chain has one.
type contractStage struct {
	rt *Runtime
}

func (st *contractStage) ID() string { return StageContracts }

func (st *contractStage) Ready(s *State) bool {
	return s.Categorized()
}

func (st *contractStage) Tasks(s *State) []flow.Task[State] {
	timeframe := s.Timeframe

	var tasks []flow.Task[State]
	for _, chain := range s.UniqueChains() {
		report := s.CategoryReports[chain]
		for _, category := range TopCategories(report.Breakdown, st.rt.Policy.TopCategories) {
			tasks = append(tasks, flow.Task[State]{
				Key: PairKey(chain, category),
				Run: func(ctx context.Context) (flow.Delta[State], error) {
					return st.analyze(ctx, chain, category, timeframe)
				},
			})
		}
	}
	return tasks
}

func (st *contractStage) analyze(ctx context.Context, chain, category string, timeframe Timeframe) (flow.Delta[State], error) {
	contracts, err := st.rt.Metrics.TopContracts(ctx, chain, category, st.rt.Policy.ContractLimit)
	if err != nil {
		return nil, fmt.Errorf("top contracts %s/%s: %w", chain, category, err)
	}
	if len(contracts) == 0 {
		return nil, flow.Failf(
			flow.KindInvalidData,
			"%w: no contracts for %s/%s", ErrInvalidUpstream, chain, category,
		)
	}

	report := buildContractReport(chain, category, timeframe, contracts)

	st.rt.Logger.InfoContext(
		ctx, "top contracts fetched",
		"chain", chain,
		"category", category,
		"contracts", len(report.Contracts),
	)

	return &contractDelta{report: report}, nil
}

// buildContractReport ranks contracts by fees and derives share percentages
// and the top-5 concentration ratio.
func buildContractReport(chain, category string, timeframe Timeframe, contracts []ContractFees) *ContractReport {
	var total float64
	for _, c := range contracts {
		total += c.FeesUSD
	}

	ranked := make([]RankedContract, 0, len(contracts))
	for _, c := range contracts {
		var share float64
		if total > 0 {
			share = c.FeesUSD / total * 100
		}
		ranked = append(ranked, RankedContract{
			Address: c.Address,
			Project: c.Project,
			Name:    c.Name,
			FeesUSD: c.FeesUSD,
			Share:   share,
			TxCount: c.TxCount,
		})
	}

	shares := make([]float64, 0, len(ranked))
	for _, c := range ranked {
		shares = append(shares, c.Share)
	}

	report := &ContractReport{
		Chain:         chain,
		Category:      category,
		Timeframe:     timeframe,
		Contracts:     ranked,
		Concentration: concentration(shares, contractConcentrationN),
		GeneratedAt:   time.Now(),
	}
	if len(ranked) > 0 {
		report.TopShare = concentration(shares, 1)
	}
	return report
}

// Verify checks pair integrity against the chain's category report and that
// the ranking is ordered by fees.
func (st *contractStage) Verify(s *State, d flow.Delta[State]) error {
	delta, ok := d.(*contractDelta)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWrongDelta, StageContracts)
	}

	report := delta.report
	parent := s.CategoryReports[report.Chain]
	if parent == nil {
		return fmt.Errorf("%w: no category report for %s", ErrInvalidUpstream, report.Chain)
	}
	if _, ok := parent.Breakdown[report.Category]; !ok {
		return fmt.Errorf(
			"%w: category %s absent from %s distribution",
			ErrInvalidUpstream, report.Category, report.Chain,
		)
	}
	if len(report.Contracts) == 0 {
		return fmt.Errorf(
			"%w: no contracts for %s/%s",
			ErrInvalidUpstream, report.Chain, report.Category,
		)
	}
	for i := 1; i < len(report.Contracts); i++ {
		if report.Contracts[i].FeesUSD > report.Contracts[i-1].FeesUSD {
			return fmt.Errorf(
				"%w: %s/%s ranking not ordered by fees",
				ErrInvalidUpstream, report.Chain, report.Category,
			)
		}
	}
	return nil
}

// contractDelta writes one (chain, category) contract report.
type contractDelta struct {
	report *ContractReport
}

func (d *contractDelta) Apply(s *State) error {
	return s.setContractReport(d.report)
}

func (d *contractDelta) Fields() map[string]any {
	return map[string]any{
		"chain":         d.report.Chain,
		"category":      d.report.Category,
		"contracts":     len(d.report.Contracts),
		"top_share":     d.report.TopShare,
		"concentration": d.report.Concentration,
	}
}
