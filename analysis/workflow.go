package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gaslens/gaslens/pkg/flow"
)

// BuildGraph assembles and compiles the analysis workflow over the given
// runtime. The graph is immutable once compiled and safe to share across
// runs.
func BuildGraph(rt *Runtime) (*flow.Graph[State], error) {
	g := flow.NewGraph[State]()

	stages := []flow.Stage[State]{
		&categoryStage{rt: rt},
		&contractStage{rt: rt},
		&trendStage{rt: rt},
		&synthesisStage{rt: rt},
	}
	for _, st := range stages {
		if err := g.Add(st); err != nil {
			return nil, fmt.Errorf("build analysis graph: %w", err)
		}
	}

	g.Complete(func(s *State) bool {
		return s.Synthesis != nil
	})

	if err := g.Compile(); err != nil {
		return nil, fmt.Errorf("build analysis graph: %w", err)
	}
	return g, nil
}

func newEngine(rt *Runtime) (*flow.Engine[State], error) {
	graph, err := BuildGraph(rt)
	if err != nil {
		return nil, err
	}

	logger := rt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := flow.NewEngine(graph, flow.Policy{
		Retries:     rt.Policy.Retries,
		Backoff:     rt.Policy.Backoff,
		Parallelism: rt.Policy.Parallelism,
	}, logger.With("system", "analysis"))
	if err != nil {
		return nil, err
	}

	engine.OnRecord(func(s *State, rec flow.Record) {
		s.Record(rec)
	})
	return engine, nil
}

// Execute runs the full analysis workflow to completion and returns the
// final state alongside the outcome. The state is valid in both outcomes;
// on termination it holds every report applied before the failure.
func Execute(ctx context.Context, rt *Runtime, chains []string, timeframe Timeframe) (*State, *flow.Outcome, error) {
	engine, err := newEngine(rt)
	if err != nil {
		return nil, nil, err
	}

	state, err := NewState(chains, timeframe)
	if err != nil {
		return nil, nil, err
	}

	outcome := engine.Run(ctx, state)
	return state, outcome, nil
}

// Stream runs the workflow while publishing per-task lifecycle events. The
// returned channel closes after the final event, which carries the outcome.
// Execution semantics are identical to Execute; only observation differs.
func Stream(ctx context.Context, rt *Runtime, chains []string, timeframe Timeframe) (*State, <-chan flow.Event, error) {
	engine, err := newEngine(rt)
	if err != nil {
		return nil, nil, err
	}

	state, err := NewState(chains, timeframe)
	if err != nil {
		return nil, nil, err
	}

	return state, engine.Stream(ctx, state), nil
}
