// Package flow provides a compiled, replayable workflow engine: stages with
// preconditions and postconditions, fan-out task expansion, a validation gate
// with bounded retries, and a single-writer execution loop that drives both
// blocking and streaming runs from the same state machine.
package flow

import "context"

// Status tracks a stage through one run.
type Status string

// Stage statuses.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// RunState is the terminal condition of a run.
type RunState string

// Run terminal states.
const (
	RunComplete   RunState = "complete"
	RunTerminated RunState = "terminated"
)

// Delta is the set of state fields a stage is authorized to write.
// Apply mutates only those fields; Fields returns a shallow snapshot of the
// newly written values for progress events.
type Delta[S any] interface {
	Apply(s *S) error
	Fields() map[string]any
}

// Task is a single invocation of a stage. Key distinguishes fan-out
// invocations of the same stage; singleton stages leave it empty. Run must
// not touch shared state: it works from values captured at expansion time and
// returns its result as a Delta.
type Task[S any] struct {
	Key string
	Run func(ctx context.Context) (Delta[S], error)
}

// Stage is one unit of the workflow.
//
// Ready is a pure predicate over the current state; it must not mutate.
// Tasks expands the stage into one or more invocations once Ready holds;
// it is called exactly once per run, on the engine goroutine. Verify is the
// stage's postcondition, checked against each task's delta before the engine
// applies it.
type Stage[S any] interface {
	ID() string
	Ready(s *S) bool
	Tasks(s *S) []Task[S]
	Verify(s *S, d Delta[S]) error
}

// Outcome describes how a run ended. Failure is set only for terminated runs.
type Outcome struct {
	State   RunState    `json:"state"`
	Failure *StageError `json:"failure,omitempty"`
}
