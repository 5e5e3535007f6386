package flow

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Engine executes a compiled graph against per-run state instances. The
// state is exclusively owned by the run's driver goroutine: tasks execute
// concurrently but only produce deltas, which the driver applies one at a
// time, so no stage ever observes a partially-applied delta from another.
type Engine[S any] struct {
	graph  *Graph[S]
	policy Policy
	record func(s *S, rec Record)
	logger *slog.Logger
}

// NewEngine creates an engine over a compiled graph. Returns ErrNotCompiled
// if Compile was not called on the graph.
func NewEngine[S any](graph *Graph[S], policy Policy, logger *slog.Logger) (*Engine[S], error) {
	if !graph.compiled {
		return nil, ErrNotCompiled
	}
	policy.normalize()
	return &Engine[S]{
		graph:  graph,
		policy: policy,
		logger: logger.With("system", "flow"),
	}, nil
}

// OnRecord sets the stage-log hook, invoked on the driver goroutine once per
// task attempt, retries included.
func (e *Engine[S]) OnRecord(fn func(s *S, rec Record)) {
	e.record = fn
}

// Run drives the graph to a terminal state and returns the outcome. It is
// the blocking mode: identical semantics to Stream, implemented by draining
// the same event stream.
func (e *Engine[S]) Run(ctx context.Context, s *S) *Outcome {
	outcome := &Outcome{
		State:   RunTerminated,
		Failure: &StageError{Kind: KindCancelled, Err: ErrCancelled},
	}
	for ev := range e.Stream(ctx, s) {
		if ev.Outcome != nil {
			outcome = ev.Outcome
		}
	}
	return outcome
}

// Stream drives the graph and yields one event per task completion plus a
// final event carrying the run outcome. The sequence is finite and
// non-restartable; consuming it to completion is equivalent to Run. If ctx
// is cancelled no new tasks start, in-flight tool calls abort at their own
// timeout, and already-applied deltas are retained.
func (e *Engine[S]) Stream(ctx context.Context, s *S) <-chan Event {
	out := make(chan Event)
	go e.drive(ctx, s, out)
	return out
}

type taskResult[S any] struct {
	stage   Stage[S]
	task    Task[S]
	attempt int
	delta   Delta[S]
	err     error
}

func (e *Engine[S]) drive(ctx context.Context, s *S, out chan<- Event) {
	defer close(out)

	rt := newRouter(e.graph)
	results := make(chan taskResult[S])
	sem := make(chan struct{}, e.policy.Parallelism)

	inflight := 0
	var failure *StageError

	dispatch := func(stage Stage[S], task Task[S], attempt int, delay time.Duration) {
		go func() {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
				}
			}
			sem <- struct{}{}
			delta, err := task.Run(ctx)
			<-sem
			results <- taskResult[S]{stage, task, attempt, delta, err}
		}()
	}

	schedule := func() {
		if failure != nil || ctx.Err() != nil {
			return
		}
		for _, stage := range rt.eligible(s) {
			tasks := stage.Tasks(s)
			rt.start(stage.ID(), len(tasks))
			e.logger.Info(
				"stage started",
				"stage", stage.ID(),
				"tasks", len(tasks),
			)
			for _, task := range tasks {
				inflight++
				dispatch(stage, task, 1, 0)
			}
		}
	}

	emit := func(ev Event) {
		ev.Time = time.Now()
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	finish := func(outcome *Outcome) {
		e.logger.Info("run finished", "state", outcome.State)
		emit(Event{Outcome: outcome})
	}

	handle := func(res taskResult[S]) {
		id := res.stage.ID()

		fail := func(err error, kind Kind) {
			e.log(s, Record{
				Stage:   id,
				Key:     res.task.Key,
				Status:  StatusFailed,
				Attempt: res.attempt,
				Error:   err.Error(),
				Time:    time.Now(),
			})

			if e.policy.retryable(kind, res.attempt) && failure == nil && ctx.Err() == nil {
				e.logger.Warn(
					"task retrying",
					"stage", id,
					"key", res.task.Key,
					"kind", kind,
					"attempt", res.attempt,
				)
				inflight++
				dispatch(res.stage, res.task, res.attempt+1, e.policy.Backoff)
				return
			}

			se := stageError(err, id, res.task.Key, kind)
			rt.fail(id)
			e.logger.Error(
				"stage failed",
				"stage", id,
				"key", res.task.Key,
				"kind", kind,
				"error", err,
			)
			emit(Event{
				Stage:   id,
				Key:     res.task.Key,
				Status:  StatusFailed,
				Attempt: res.attempt,
				Error:   se,
			})
			if failure == nil {
				failure = se
			}
		}

		if res.err != nil {
			fail(res.err, Classify(res.err))
			return
		}

		if err := res.stage.Verify(s, res.delta); err != nil {
			fail(err, KindInvalidData)
			return
		}

		if err := res.delta.Apply(s); err != nil {
			// ownership or write-once violation; never retried
			fail(err, KindPermanent)
			return
		}

		e.log(s, Record{
			Stage:   id,
			Key:     res.task.Key,
			Status:  StatusDone,
			Attempt: res.attempt,
			Time:    time.Now(),
		})

		if rt.taskDone(id) {
			e.logger.Info("stage complete", "stage", id)
		}

		emit(Event{
			Stage:   id,
			Key:     res.task.Key,
			Status:  StatusDone,
			Attempt: res.attempt,
			Fields:  res.delta.Fields(),
		})
	}

	schedule()

	for {
		if inflight == 0 {
			switch {
			case failure != nil:
				finish(&Outcome{State: RunTerminated, Failure: failure})
				return
			case ctx.Err() != nil:
				finish(&Outcome{
					State:   RunTerminated,
					Failure: &StageError{Kind: KindCancelled, Err: ErrCancelled},
				})
				return
			case rt.done(s):
				finish(&Outcome{State: RunComplete})
				return
			default:
				schedule()
				if inflight == 0 {
					finish(&Outcome{
						State:   RunTerminated,
						Failure: &StageError{Kind: KindPermanent, Err: ErrStalled},
					})
					return
				}
			}
		}

		res := <-results
		inflight--
		handle(res)
		schedule()
	}
}

func (e *Engine[S]) log(s *S, rec Record) {
	if e.record != nil {
		e.record(s, rec)
	}
}

// stageError normalizes err into a StageError tagged with stage and key.
func stageError(err error, stage, key string, kind Kind) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		// when a stage wraps the classified error with its own sentinel,
		// keep the full chain so callers can still match that sentinel
		inner := err
		if inner == error(se) {
			inner = se.Err
		}
		return &StageError{Stage: stage, Key: key, Kind: se.Kind, Err: inner}
	}
	return &StageError{Stage: stage, Key: key, Kind: kind, Err: err}
}
