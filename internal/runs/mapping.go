package runs

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/pkg/query"
	"github.com/gaslens/gaslens/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("chains", "Chains").
	Project("timeframe", "Timeframe").
	Project("status", "Status").
	Project("state", "State").
	Project("failure_stage", "FailureStage").
	Project("failure_kind", "FailureKind").
	Project("failure_message", "FailureMessage").
	Project("created_at", "CreatedAt").
	Project("finished_at", "FinishedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// chainsText casts the chains document to text for substring search.
const chainsText = "r.chains::text"

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Status    *string `json:"status,omitempty"`
	Timeframe *string `json:"timeframe,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("Timeframe", f.Timeframe)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if t := values.Get("timeframe"); t != "" {
		f.Timeframe = &t
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var (
		run        Run
		chainsRaw  []byte
		stateRaw   []byte
		failStage  *string
		failKind   *string
		failReason *string
	)

	err := s.Scan(
		&run.ID,
		&chainsRaw,
		&run.Timeframe,
		&run.Status,
		&stateRaw,
		&failStage,
		&failKind,
		&failReason,
		&run.CreatedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return run, err
	}

	if err := json.Unmarshal(chainsRaw, &run.Chains); err != nil {
		return run, fmt.Errorf("unmarshal chains: %w", err)
	}

	if len(stateRaw) > 0 {
		var state analysis.State
		if err := json.Unmarshal(stateRaw, &state); err != nil {
			return run, fmt.Errorf("unmarshal state: %w", err)
		}
		run.State = &state
	}

	if failStage != nil {
		run.Failure = &Failure{Stage: *failStage}
		if failKind != nil {
			run.Failure.Kind = *failKind
		}
		if failReason != nil {
			run.Failure.Message = *failReason
		}
	}

	return run, nil
}
