package executions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/documents"
	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/pipeline"
	"github.com/JaimeStill/cascade/internal/workflows"
	"github.com/JaimeStill/cascade/pkg/lifecycle"
	"github.com/JaimeStill/cascade/pkg/pagination"
	"github.com/JaimeStill/cascade/pkg/query"
	"github.com/JaimeStill/cascade/pkg/repository"
)

// persistTimeout bounds the terminal-record insert that runs after the
// lifecycle context is already cancelled during shutdown.
const persistTimeout = 10 * time.Second

type repo struct {
	db          *sql.DB
	coordinator *engine.Coordinator
	workflows   workflows.System
	documents   documents.System
	lifecycle   *lifecycle.Coordinator
	logger      *slog.Logger
	pagination  pagination.Config

	active *runStore
	wg     sync.WaitGroup
}

// New creates an execution repository implementing the System interface.
// A shutdown hook drains in-flight runs so their terminal records reach
// Postgres before the process exits, then releases the worker pool.
func New(
	db *sql.DB,
	coordinator *engine.Coordinator,
	flows workflows.System,
	docs documents.System,
	lc *lifecycle.Coordinator,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	r := &repo{
		db:          db,
		coordinator: coordinator,
		workflows:   flows,
		documents:   docs,
		lifecycle:   lc,
		logger:      logger.With("system", "executions"),
		pagination:  pagination,
		active:      newRunStore(),
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		r.wg.Wait()
		r.coordinator.Close()
	})

	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// Submit resolves the workflow and its input documents, revalidates the
// stored graph against the submitted inputs, and starts the run on a
// background goroutine. The returned execution is the pending snapshot;
// callers poll Find for progress.
func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Execution, error) {
	if len(cmd.DocumentIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", ErrInvalidInput)
	}

	flow, err := r.workflows.Find(ctx, cmd.WorkflowID)
	if err != nil {
		if errors.Is(err, workflows.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, cmd.WorkflowID)
		}
		return nil, fmt.Errorf("resolve workflow: %w", err)
	}

	seed, inputs, err := r.resolveInputs(ctx, cmd.DocumentIDs)
	if err != nil {
		return nil, err
	}

	// The stored graph was validated when saved, but the declared inputs
	// are replaced by the submitted documents; formats must fit again.
	graph := flow.Graph
	graph.InputFiles = inputs

	report := r.workflows.Validate(&graph)
	if !report.Valid {
		return nil, &ValidationError{Report: report}
	}

	run := engine.NewRun(uuid.New(), flow.ID)
	snapshot := run.Snapshot()

	r.active.put(run.ID(), run)
	r.wg.Add(1)
	go r.execute(run, &graph, seed)

	r.logger.Info(
		"execution submitted",
		"id", snapshot.ID,
		"workflow_id", flow.ID,
		"documents", len(cmd.DocumentIDs),
	)

	exec := fromRecord(snapshot)
	return &exec, nil
}

func (r *repo) resolveInputs(
	ctx context.Context,
	ids []uuid.UUID,
) (engine.Payload, []pipeline.InputFile, error) {
	seed := make(engine.Payload, len(ids))
	inputs := make([]pipeline.InputFile, 0, len(ids))

	for _, id := range ids {
		doc, err := r.documents.Find(ctx, id)
		if err != nil {
			if errors.Is(err, documents.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: document %s not found", ErrInvalidInput, id)
			}
			return nil, nil, fmt.Errorf("resolve document %s: %w", id, err)
		}

		if _, exists := seed[doc.Filename]; exists {
			return nil, nil, fmt.Errorf("%w: duplicate input filename %q", ErrInvalidInput, doc.Filename)
		}

		seed[doc.Filename] = engine.Blob{Format: doc.Format, Key: doc.StorageKey}
		inputs = append(inputs, pipeline.InputFile{Name: doc.Filename, Format: doc.Format})
	}

	return seed, inputs, nil
}

func (r *repo) execute(run *engine.Run, graph *pipeline.Graph, seed engine.Payload) {
	defer r.wg.Done()

	record := r.coordinator.Execute(r.lifecycle.Context(), run, graph, seed)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := r.persist(ctx, record); err != nil {
		r.logger.Error("persist execution failed", "id", record.ID, "error", err)
	}

	r.active.remove(record.ID)
}

func (r *repo) persist(ctx context.Context, record engine.Record) error {
	nodesJSON, err := json.Marshal(record.Nodes)
	if err != nil {
		return fmt.Errorf("encode execution nodes: %w", err)
	}

	filesJSON, err := json.Marshal(record.OutputFiles)
	if err != nil {
		return fmt.Errorf("encode execution output files: %w", err)
	}

	q := `
		INSERT INTO executions(id, workflow_id, status, progress, started_at, completed_at, error, nodes, output_files)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	args := []any{
		record.ID,
		record.WorkflowID,
		string(record.Status),
		record.Progress,
		record.StartedAt,
		record.CompletedAt,
		record.Error,
		nodesJSON,
		filesJSON,
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, q, args...); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}

// Find returns the current snapshot of an execution: live runs come from
// the active store, finished ones from Postgres.
func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Execution, error) {
	if run, ok := r.active.get(id); ok {
		exec := fromRecord(run.Snapshot())
		return &exec, nil
	}

	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanExecution)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &e, nil
}

// Cancel requests cooperative cancellation of a live run. In-flight node
// operations finish; no further wave starts. Cancelling an execution that
// already reached a terminal state returns ErrNotRunning.
func (r *repo) Cancel(ctx context.Context, id uuid.UUID) (*Execution, error) {
	if run, ok := r.active.get(id); ok {
		run.Cancel()
		r.logger.Info("execution cancel requested", "id", id)
		exec := fromRecord(run.Snapshot())
		return &exec, nil
	}

	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotRunning, id)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Execution], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Error")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	execs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanExecution)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}

	result := pagination.NewPageResult(execs, total, page.Page, page.PageSize)
	return &result, nil
}
