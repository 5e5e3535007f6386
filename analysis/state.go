package analysis

import (
	"fmt"

	"github.com/gaslens/gaslens/pkg/flow"
)

// State is the shared record threaded through one run. It is exclusively
// owned by the execution engine: stages read it through preconditions and
// write it only through deltas the engine applies one at a time. Collection
// fields are append-only and report fields overwrite-once.
type State struct {
	Chains    []string  `json:"chains"`
	Timeframe Timeframe `json:"timeframe"`

	CategoryReports map[string]*CategoryReport `json:"category_reports,omitempty"`
	ContractReports map[string]*ContractReport `json:"contract_reports,omitempty"`
	Trend           *TrendReport               `json:"trend,omitempty"`
	Synthesis       *SynthesisReport           `json:"synthesis,omitempty"`

	StageLog []flow.Record `json:"stage_log"`
}

// NewState validates run inputs and creates a fresh state instance. Chains
// keep their given order; duplicates survive here and are deduplicated at
// point of use.
func NewState(chains []string, timeframe Timeframe) (*State, error) {
	if len(chains) == 0 {
		return nil, ErrChainsRequired
	}
	if _, err := ParseTimeframe(string(timeframe)); err != nil {
		return nil, err
	}
	return &State{
		Chains:          chains,
		Timeframe:       timeframe,
		CategoryReports: make(map[string]*CategoryReport),
		ContractReports: make(map[string]*ContractReport),
	}, nil
}

// UniqueChains returns the requested chains deduplicated, order preserved.
func (s *State) UniqueChains() []string {
	return uniqueChains(s.Chains)
}

// PairKey builds the contract-report key for a (chain, category) pair.
func PairKey(chain, category string) string {
	return chain + "/" + category
}

// Categorized reports whether every requested chain has a category report.
func (s *State) Categorized() bool {
	for _, chain := range s.UniqueChains() {
		if s.CategoryReports[chain] == nil {
			return false
		}
	}
	return true
}

// ExpectedPairs derives the contract-analysis fan-out targets from the
// category reports: the top categories per chain, up to count. It is empty
// until every chain is categorized, since partial targets would let the
// synthesis stage fire early.
func (s *State) ExpectedPairs(count int) []string {
	if !s.Categorized() {
		return nil
	}
	var pairs []string
	for _, chain := range s.UniqueChains() {
		for _, category := range TopCategories(s.CategoryReports[chain].Breakdown, count) {
			pairs = append(pairs, PairKey(chain, category))
		}
	}
	return pairs
}

// Contracted reports whether every expected fan-out pair has a
// contract report.
func (s *State) Contracted(count int) bool {
	pairs := s.ExpectedPairs(count)
	if pairs == nil {
		return false
	}
	for _, pair := range pairs {
		if s.ContractReports[pair] == nil {
			return false
		}
	}
	return true
}

// Record appends one stage-log entry. Called by the engine's record hook on
// the driver goroutine; the log never shrinks.
func (s *State) Record(rec flow.Record) {
	s.StageLog = append(s.StageLog, rec)
}

// setCategoryReport enforces overwrite-once for a chain's category report.
func (s *State) setCategoryReport(report *CategoryReport) error {
	if s.CategoryReports[report.Chain] != nil {
		return fmt.Errorf("%w: category report for %s", ErrReportExists, report.Chain)
	}
	s.CategoryReports[report.Chain] = report
	return nil
}

// setContractReport enforces overwrite-once and the hard ordering dependency
// on the chain's category report.
func (s *State) setContractReport(report *ContractReport) error {
	key := PairKey(report.Chain, report.Category)
	if s.ContractReports[key] != nil {
		return fmt.Errorf("%w: contract report for %s", ErrReportExists, key)
	}
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
	s.ContractReports[key] = report
	return nil
}

// setTrend enforces overwrite-once for the trend report.
func (s *State) setTrend(report *TrendReport) error {
	if s.Trend != nil {
		return fmt.Errorf("%w: trend report", ErrReportExists)
	}
	s.Trend = report
	return nil
}

// setSynthesis enforces the at-most-once write of the final report.
func (s *State) setSynthesis(report *SynthesisReport) error {
	if s.Synthesis != nil {
		return ErrSynthesisWritten
	}
	s.Synthesis = report
	return nil
}
