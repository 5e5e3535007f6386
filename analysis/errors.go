package analysis

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrChainsRequired   = errors.New("at least one chain is required")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrToolUnavailable  = errors.New("tool unavailable")
	ErrInvalidUpstream  = errors.New("invalid upstream data")
	ErrSynthesis        = errors.New("synthesis failed")

	ErrReportExists     = errors.New("report already written")
	ErrSynthesisWritten = errors.New("synthesis already written")
	ErrWrongDelta       = errors.New("delta type does not belong to stage")
)
