package runs

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/internal/tools"
	"github.com/gaslens/gaslens/pkg/flow"
	"github.com/gaslens/gaslens/pkg/pagination"
	"github.com/gaslens/gaslens/pkg/query"
	"github.com/gaslens/gaslens/pkg/repository"
	"github.com/gaslens/gaslens/pkg/storage"
)

type repo struct {
	db          *sql.DB
	metrics     analysis.MetricsProvider
	synthesizer analysis.Synthesizer
	policy      analysis.Policy
	store       storage.System
	logger      *slog.Logger
	pagination  pagination.Config
}

// New creates a run repository implementing the System interface.
func New(
	db *sql.DB,
	metrics analysis.MetricsProvider,
	synthesizer analysis.Synthesizer,
	policy analysis.Policy,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:          db,
		metrics:     metrics,
		synthesizer: synthesizer,
		policy:      policy,
		store:       store,
		logger:      logger.With("system", "runs"),
		pagination:  pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// runtime builds a per-run workflow runtime. The metrics provider is wrapped
// with a fresh cache so identical fetches within one run are deduplicated
// without leaking stale data across runs.
func (r *repo) runtime(id uuid.UUID) *analysis.Runtime {
	return &analysis.Runtime{
		Metrics:     tools.Cached(r.metrics),
		Synthesizer: r.synthesizer,
		Policy:      r.policy,
		Logger:      r.logger.With("run", id),
	}
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, chainsText)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryValue[int](ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Execute(ctx context.Context, cmd ExecuteCommand) (*Run, error) {
	run, timeframe, err := r.create(ctx, cmd)
	if err != nil {
		return nil, err
	}

	state, outcome, err := analysis.Execute(ctx, r.runtime(run.ID), run.Chains, timeframe)
	if err != nil {
		return nil, fmt.Errorf("execute run %s: %w", run.ID, err)
	}

	return r.finish(ctx, run, state, outcome)
}

func (r *repo) Stream(ctx context.Context, cmd ExecuteCommand) (*Run, <-chan flow.Event, error) {
	run, timeframe, err := r.create(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}

	state, events, err := analysis.Stream(ctx, r.runtime(run.ID), run.Chains, timeframe)
	if err != nil {
		return nil, nil, fmt.Errorf("stream run %s: %w", run.ID, err)
	}

	out := make(chan flow.Event)
	go func() {
		defer close(out)
		for event := range events {
			if event.Outcome != nil {
				// persist before forwarding so consumers observing the
				// final event always see the stored terminal run
				if _, err := r.finish(context.WithoutCancel(ctx), run, state, event.Outcome); err != nil {
					r.logger.Error("persist streamed run failed", "run", run.ID, "error", err)
				}
			}
			select {
			case out <- event:
			case <-ctx.Done():
				// consumer is gone; keep draining so the final event
				// still reaches the persistence path above
			}
		}
	}()

	return run, out, nil
}

func (r *repo) Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	run, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !run.Status.Terminal() {
		return nil, ErrReportNotReady
	}

	return r.store.Download(ctx, ReportKey(id))
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, "DELETE FROM runs WHERE id = $1", id)
		return struct{}{}, err
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.store.Delete(ctx, ReportKey(id)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("archived report cleanup failed", "run", id, "error", err)
	}

	r.logger.Info("run deleted", "id", id)
	return nil
}

// create validates the command and inserts the pending run row.
func (r *repo) create(ctx context.Context, cmd ExecuteCommand) (*Run, analysis.Timeframe, error) {
	timeframe, err := analysis.ParseTimeframe(cmd.Timeframe)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(cmd.Chains) == 0 {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidRequest, analysis.ErrChainsRequired)
	}

	chainsJSON, err := json.Marshal(cmd.Chains)
	if err != nil {
		return nil, "", fmt.Errorf("marshal chains: %w", err)
	}

	insertQ := `
		INSERT INTO runs(chains, timeframe, status)
		VALUES ($1, $2, $3)
		RETURNING id, chains, timeframe, status, state,
				  failure_stage, failure_kind, failure_message,
				  created_at, finished_at`

	run, err := repository.QueryOne(ctx, r.db, insertQ,
		[]any{chainsJSON, string(timeframe), string(StatusRunning)},
		scanRun,
	)
	if err != nil {
		return nil, "", repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run created",
		"id", run.ID,
		"chains", run.Chains,
		"timeframe", run.Timeframe,
	)
	return &run, timeframe, nil
}

// statusFor maps a workflow outcome to the stored run status.
func statusFor(outcome *flow.Outcome) Status {
	if outcome.State == flow.RunTerminated {
		return StatusTerminated
	}
	return StatusComplete
}

// finish persists the terminal state and archives the report document.
func (r *repo) finish(ctx context.Context, run *Run, state *analysis.State, outcome *flow.Outcome) (*Run, error) {
	status := statusFor(outcome)

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	var failStage, failKind, failMessage *string
	if outcome.Failure != nil {
		stage := outcome.Failure.Stage
		kind := string(outcome.Failure.Kind)
		message := outcome.Failure.Message()
		failStage, failKind, failMessage = &stage, &kind, &message
	}

	updateQ := `
		UPDATE runs
		SET status = $1, state = $2,
			failure_stage = $3, failure_kind = $4, failure_message = $5,
			finished_at = NOW()
		WHERE id = $6
		RETURNING id, chains, timeframe, status, state,
				  failure_stage, failure_kind, failure_message,
				  created_at, finished_at`

	updated, err := repository.QueryOne(ctx, r.db, updateQ,
		[]any{string(status), stateJSON, failStage, failKind, failMessage, run.ID},
		scanRun,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.archive(ctx, &updated, stateJSON); err != nil {
		r.logger.Error("report archive failed", "run", updated.ID, "error", err)
	}

	r.logger.Info("run finished",
		"id", updated.ID,
		"status", updated.Status,
		"stages_logged", len(state.StageLog),
	)
	return &updated, nil
}

// archive uploads the report document for a finished run.
func (r *repo) archive(ctx context.Context, run *Run, stateJSON []byte) error {
	doc := struct {
		ID        uuid.UUID       `json:"id"`
		Status    Status          `json:"status"`
		Failure   *Failure        `json:"failure,omitempty"`
		State     json.RawMessage `json:"state"`
		CreatedAt time.Time       `json:"created_at"`
	}{
		ID:        run.ID,
		Status:    run.Status,
		Failure:   run.Failure,
		State:     stateJSON,
		CreatedAt: run.CreatedAt,
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return r.store.Upload(ctx, ReportKey(run.ID), bytes.NewReader(payload), "application/json")
}
