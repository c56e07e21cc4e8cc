// Package workflow provides the execution engine: it drives the fixed node
// sequence for each submitted query, owns the execution state and publishes
// the lifecycle event stream.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/eventbus"
	"github.com/datalens-ai/datalens/pkg/events"
	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/otelhelper"
	"github.com/datalens-ai/datalens/pkg/protocol"
	"github.com/datalens-ai/datalens/pkg/registry"
	"github.com/datalens-ai/datalens/pkg/store"
)

// ErrEmptyQuery is returned by Start for blank queries.
var ErrEmptyQuery = errors.New("query must not be empty")

// Engine runs executions. Each Start spawns one goroutine that walks the node
// sequence; the engine is the single writer of that execution's store entry
// and the single publisher of its event stream.
type Engine struct {
	logger   *slog.Logger
	store    store.ExecutionStore
	bus      eventbus.EventBus
	registry *registry.Registry
	deps     protocol.Dependencies
	cfg      config.WorkflowConfig
	tracer   trace.Tracer

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewEngine(
	logger *slog.Logger,
	executionStore store.ExecutionStore,
	bus eventbus.EventBus,
	reg *registry.Registry,
	deps protocol.Dependencies,
	cfg config.WorkflowConfig,
) (*Engine, error) {
	if executionStore == nil {
		return nil, errors.New("execution store is required")
	}

	if bus == nil {
		return nil, errors.New("event bus is required")
	}

	if reg == nil {
		return nil, errors.New("node registry is required")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid workflow configuration: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		logger:   logger.With("module", "workflow_engine"),
		store:    executionStore,
		bus:      bus,
		registry: reg,
		deps:     deps,
		cfg:      cfg,
		running:  make(map[string]context.CancelFunc),
	}, nil
}

// WithTracer enables per-execution and per-node tracing spans.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer
	return e
}

// Start validates the query, registers a pending execution and launches its
// run goroutine. It returns the execution identifier immediately; progress is
// observed through Subscribe and the execution store.
func (e *Engine) Start(ctx context.Context, query string, sources models.DataSourceContext) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	id := "exec-" + uuid.New().String()
	execution := models.NewExecution(id, query, sources)

	if err := e.store.Create(ctx, execution); err != nil {
		return "", fmt.Errorf("failed to create execution %s: %w", id, err)
	}

	// The run outlives the submitting request, so it gets its own lifetime
	// detached from the caller's context.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	e.mu.Lock()
	e.running[id] = cancel
	e.mu.Unlock()

	e.wg.Add(1)

	go e.run(runCtx, execution)

	return id, nil
}

// Cancel requests cooperative cancellation of a running execution. The second
// and later calls for the same execution are no-ops, as is cancelling an
// execution that already reached a terminal state.
func (e *Engine) Cancel(ctx context.Context, executionID string) error {
	e.mu.Lock()
	cancel, ok := e.running[executionID]
	e.mu.Unlock()

	if ok {
		cancel()

		return nil
	}

	execution, err := e.store.Get(ctx, executionID)
	if err != nil {
		return err
	}

	if !execution.Status.Terminal() {
		e.logger.Warn("Cancel requested for execution not running in this process", "execution_id", executionID)
	}

	return nil
}

// Subscribe attaches an observer to one execution's event stream.
func (e *Engine) Subscribe(ctx context.Context, executionID string) (<-chan events.Event, error) {
	return e.bus.Subscribe(ctx, executionID)
}

// Execution returns a snapshot of one execution.
func (e *Engine) Execution(ctx context.Context, executionID string) (*models.Execution, error) {
	return e.store.Get(ctx, executionID)
}

// Executions returns snapshots of all retained executions.
func (e *Engine) Executions(ctx context.Context) ([]*models.Execution, error) {
	return e.store.List(ctx)
}

// Close cancels every running execution and waits for their goroutines.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	for _, cancel := range e.running {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})

	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context, execution *models.Execution) {
	defer e.wg.Done()
	defer e.release(execution.ID)

	logger := e.logger.With("execution_id", execution.ID)
	start := time.Now()

	// Terminal writes and events must land even after cancellation.
	bgCtx := context.WithoutCancel(ctx)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execution",
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.QueryKey, execution.Query),
		)
		defer span.End()
	}

	logger.Info("Starting execution", "query", execution.Query)

	execution.Status = models.ExecutionStatusRunning
	e.persist(bgCtx, execution, logger)

	startedEvent := &events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, execution.ID),
		Query:       execution.Query,
		DataSources: execution.DataSources,
	}
	e.publish(bgCtx, execution.ID, startedEvent, logger)

	execCtx := models.ExecutionContext{
		ID:          execution.ID,
		Query:       execution.Query,
		DataSources: execution.DataSources,
		NodeOutputs: make(map[models.NodeType]models.NodeOutput),
		Logger:      logger,
	}

	var (
		failure    error
		failedNode models.NodeType
	)

	for _, nodeType := range models.NodeSequence {
		if ctx.Err() != nil {
			failure = models.ErrExecutionCancelled

			break
		}

		if nodeType == models.NodeSQLAgent {
			if decision, ok := execCtx.Routing(); ok && !decision.NeedsStructuredQuery {
				e.skipNode(bgCtx, execution, nodeType, decision.Rationale, logger)

				continue
			}
		}

		result, err := e.runNode(ctx, bgCtx, execution, execCtx, nodeType, logger)
		if err != nil {
			failure = err
			failedNode = nodeType

			break
		}

		execCtx.NodeOutputs[nodeType] = result.Output

		if answer, ok := result.Output.(*models.AnswerOutput); ok {
			execution.FinalAnswer = answer.Answer

			answerDone := &events.AnswerCompleted{
				BaseEvent:     events.NewNodeEvent(events.AnswerCompletedEvent, execution.ID, nodeType),
				FragmentCount: answer.FragmentCount,
			}
			e.publish(bgCtx, execution.ID, answerDone, logger)
		}
	}

	e.finish(ctx, bgCtx, execution, failure, failedNode, start, logger)
}

func (e *Engine) finish(
	ctx, bgCtx context.Context,
	execution *models.Execution,
	failure error,
	failedNode models.NodeType,
	start time.Time,
	logger *slog.Logger,
) {
	ended := time.Now().UTC()
	execution.EndedAt = &ended
	durationMs := time.Since(start).Milliseconds()

	if failure == nil {
		execution.Status = models.ExecutionStatusCompleted

		completed := &events.ExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, execution.ID),
			Status:        string(execution.Status),
			DurationMs:    durationMs,
			NodesExecuted: e.nodesExecuted(execution),
			FinalAnswer:   execution.FinalAnswer,
		}
		e.publish(bgCtx, execution.ID, completed, logger)
		e.persist(bgCtx, execution, logger)

		logger.Info("Execution completed", "duration_ms", durationMs)

		return
	}

	kind := models.FailureKind(failure)
	if ctx.Err() != nil {
		kind = models.ErrKindCancelled
	}

	execution.Status = models.ExecutionStatusFailed
	execution.FailureReason = kind

	// Nodes that never got their turn are marked skipped so every node entry
	// ends in a terminal state, and the stream describes each of those
	// transitions before the terminal event.
	skipReason := "not reached: upstream node failed"
	if kind == models.ErrKindCancelled {
		skipReason = "not reached: execution cancelled"
	}

	for _, state := range execution.NodeStates {
		if !state.Status.Terminal() && state.Status != models.NodeStatusRunning {
			state.Status = models.NodeStatusSkipped

			skipped := &events.NodeSkipped{
				BaseEvent: events.NewNodeEvent(events.NodeSkippedEvent, execution.ID, state.NodeID),
				Reason:    skipReason,
			}
			e.publish(bgCtx, execution.ID, skipped, logger)
		}
	}

	failed := &events.ExecutionFailed{
		BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, execution.ID),
		Status:        string(execution.Status),
		DurationMs:    durationMs,
		ErrorKind:     kind,
		ErrorMessage:  failure.Error(),
		FailedNode:    failedNode,
		NodesExecuted: e.nodesExecuted(execution),
	}
	e.publish(bgCtx, execution.ID, failed, logger)
	e.persist(bgCtx, execution, logger)

	logger.Warn("Execution failed", "error_kind", kind, "error", failure, "duration_ms", durationMs)
}

func (e *Engine) runNode(
	ctx, bgCtx context.Context,
	execution *models.Execution,
	execCtx models.ExecutionContext,
	nodeType models.NodeType,
	logger *slog.Logger,
) (*models.NodeResult, error) {
	state := execution.NodeState(nodeType)
	started := time.Now().UTC()

	state.Status = models.NodeStatusRunning
	state.StartedAt = &started
	state.Input = nodeInputs(nodeType, execCtx)

	startedEvent := &events.NodeStarted{
		BaseEvent: events.NewNodeEvent(events.NodeStartedEvent, execution.ID, nodeType),
		Input:     state.Input,
	}
	e.publish(bgCtx, execution.ID, startedEvent, logger)
	e.persist(bgCtx, execution, logger)

	node, err := e.registry.CreateNode(ctx, string(nodeType), e.deps, e.nodeConfig(nodeType))
	if err != nil {
		return nil, e.failNode(bgCtx, execution, state, started,
			fmt.Errorf("failed to create node %s: %w", nodeType, err), logger)
	}

	nodeCtx := execCtx.WithLogger(logger.With("node_id", nodeType))
	if nodeType == models.NodeLLMProcessing {
		nodeCtx.EmitFragment = e.fragmentEmitter(ctx, execution, logger)
	}

	spanCtx := ctx

	var span trace.Span

	if e.tracer != nil {
		spanCtx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String(otelhelper.NodeIDKey, string(nodeType)),
		)
		defer span.End()
	}

	result, err := node.Execute(spanCtx, nodeCtx)
	if err != nil {
		if span != nil {
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.NodeIDKey, string(nodeType)),
			)
		}

		return nil, e.failNode(bgCtx, execution, state, started, err, logger)
	}

	state.Status = models.NodeStatusCompleted
	state.Output = result.Output
	state.Duration = time.Since(started)

	completedEvent := &events.NodeCompleted{
		BaseEvent:  events.NewNodeEvent(events.NodeCompletedEvent, execution.ID, nodeType),
		DurationMs: state.Duration.Milliseconds(),
		Output:     outputSummary(result.Output),
	}
	e.publish(bgCtx, execution.ID, completedEvent, logger)
	e.persist(bgCtx, execution, logger)

	logger.Info("Node completed", "node_id", nodeType, "duration_ms", state.Duration.Milliseconds())

	return result, nil
}

func (e *Engine) failNode(
	bgCtx context.Context,
	execution *models.Execution,
	state *models.NodeExecution,
	started time.Time,
	err error,
	logger *slog.Logger,
) error {
	state.Status = models.NodeStatusErrored
	state.Error = err.Error()
	state.ErrorKind = models.FailureKind(err)
	state.Duration = time.Since(started)

	errorEvent := &events.NodeError{
		BaseEvent:    events.NewNodeEvent(events.NodeErrorEvent, execution.ID, state.NodeID),
		ErrorKind:    state.ErrorKind,
		ErrorMessage: state.Error,
		DurationMs:   state.Duration.Milliseconds(),
	}
	e.publish(bgCtx, execution.ID, errorEvent, logger)
	e.persist(bgCtx, execution, logger)

	logger.Warn("Node errored", "node_id", state.NodeID, "error_kind", state.ErrorKind, "error", err)

	return err
}

func (e *Engine) skipNode(
	bgCtx context.Context,
	execution *models.Execution,
	nodeType models.NodeType,
	reason string,
	logger *slog.Logger,
) {
	state := execution.NodeState(nodeType)
	state.Status = models.NodeStatusSkipped

	skippedEvent := &events.NodeSkipped{
		BaseEvent: events.NewNodeEvent(events.NodeSkippedEvent, execution.ID, nodeType),
		Reason:    reason,
	}
	e.publish(bgCtx, execution.ID, skippedEvent, logger)
	e.persist(bgCtx, execution, logger)

	logger.Info("Node skipped", "node_id", nodeType, "reason", reason)
}

// fragmentEmitter forwards answer fragments to the event stream and grows the
// partial final answer. A cancelled run context stops the stream at the next
// fragment boundary.
func (e *Engine) fragmentEmitter(ctx context.Context, execution *models.Execution, logger *slog.Logger) func(int, string) error {
	bgCtx := context.WithoutCancel(ctx)

	return func(index int, text string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		execution.FinalAnswer += text

		fragment := &events.AnswerFragment{
			BaseEvent: events.NewNodeEvent(events.AnswerFragmentEvent, execution.ID, models.NodeLLMProcessing),
			Index:     index,
			Text:      text,
		}

		if err := e.bus.Publish(bgCtx, execution.ID, fragment); err != nil {
			logger.Error("Failed to publish answer fragment", "index", index, "error", err)
		}

		return nil
	}
}

func (e *Engine) nodeConfig(nodeType models.NodeType) map[string]any {
	switch nodeType {
	case models.NodeRAGQuery:
		return map[string]any{
			"top_k":        e.cfg.Retrieval.TopK,
			"rerank_top_k": e.cfg.Retrieval.RerankTopK,
		}
	case models.NodeSQLAgent:
		return map[string]any{
			"iteration_cap":    e.cfg.Agent.IterationCap,
			"sample_row_limit": e.cfg.Agent.SampleRowLimit,
		}
	case models.NodeChartProcess:
		return map[string]any{
			"pie_cardinality": e.cfg.Chart.PieCardinality,
		}
	default:
		return nil
	}
}

func (e *Engine) nodesExecuted(execution *models.Execution) int {
	count := 0

	for _, state := range execution.NodeStates {
		if state.Status == models.NodeStatusCompleted {
			count++
		}
	}

	return count
}

func (e *Engine) release(executionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cancel, ok := e.running[executionID]; ok {
		cancel()
		delete(e.running, executionID)
	}
}

// publish logs and swallows publish failures; event delivery is best effort
// and never fails the execution itself.
func (e *Engine) publish(ctx context.Context, executionID string, event events.Event, logger *slog.Logger) {
	if err := e.bus.Publish(ctx, executionID, event); err != nil {
		logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) persist(ctx context.Context, execution *models.Execution, logger *slog.Logger) {
	if err := e.store.Update(ctx, execution); err != nil {
		logger.Error("Failed to persist execution state", "error", err)
	}
}

// nodeInputs lists the upstream outputs the node actually reads.
func nodeInputs(nodeType models.NodeType, execCtx models.ExecutionContext) []models.NodeType {
	switch nodeType {
	case models.NodeChartProcess:
		if _, ok := execCtx.NodeOutputs[models.NodeSQLAgent]; ok {
			return []models.NodeType{models.NodeSQLAgent}
		}
	case models.NodeLLMProcessing:
		var inputs []models.NodeType

		for _, upstream := range []models.NodeType{models.NodeRAGQuery, models.NodeSQLAgent, models.NodeChartProcess} {
			if _, ok := execCtx.NodeOutputs[upstream]; ok {
				inputs = append(inputs, upstream)
			}
		}

		return inputs
	}

	return nil
}

// outputSummary flattens a node output into the compact event payload; the
// full typed output stays on the execution record.
func outputSummary(output models.NodeOutput) map[string]any {
	switch out := output.(type) {
	case *models.RAGQueryOutput:
		return map[string]any{
			"retrieved":       len(out.Retrieved),
			"reranked":        len(out.Reranked),
			"rerank_degraded": out.RerankDegraded,
		}
	case *models.RoutingDecision:
		return map[string]any{
			"needs_structured_query": out.NeedsStructuredQuery,
			"rule_triggered":         string(out.RuleTriggered),
		}
	case *models.StructuredQueryResult:
		return map[string]any{
			"query":     out.QueryText,
			"row_count": out.RowCount,
			"degraded":  out.Degraded,
		}
	case *models.ChartSpec:
		return map[string]any{
			"suitable":   out.Suitable,
			"chart_type": string(out.ChartType),
			"points":     len(out.DataPoints),
		}
	case *models.AnswerOutput:
		return map[string]any{
			"fragment_count": out.FragmentCount,
		}
	default:
		return nil
	}
}
