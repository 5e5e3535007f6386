// Package analysis implements the onchain gas-fee analysis workflow: shared
// run state, the report types each stage produces, and the four stages
// (category distribution, top contracts, historical trend, strategic
// synthesis) wired into a flow graph.
package analysis

import (
	"fmt"
	"slices"
)

// Timeframe selects the analysis window.
type Timeframe string

// Supported timeframes. TimeframeHistorical additionally triggers the trend
// analysis stage over cached historical datasets.
const (
	Timeframe7d         Timeframe = "7d"
	Timeframe14d        Timeframe = "14d"
	TimeframeHistorical Timeframe = "historical"
)

// ParseTimeframe validates a raw timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	switch tf {
	case Timeframe7d, Timeframe14d, TimeframeHistorical:
		return tf, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimeframe, s)
}

// Historical reports whether the trend analysis stage is eligible.
func (t Timeframe) Historical() bool {
	return t == TimeframeHistorical
}

// uniqueChains deduplicates while preserving first-seen order.
func uniqueChains(chains []string) []string {
	out := make([]string, 0, len(chains))
	for _, chain := range chains {
		if !slices.Contains(out, chain) {
			out = append(out, chain)
		}
	}
	return out
}
