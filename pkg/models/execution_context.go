package models

import "log/slog"

// ExecutionContext is the read view a node gets of the run so far: the query,
// the registered sources and the outputs of every node that already finished.
// The engine owns the underlying execution; nodes never mutate it directly.
type ExecutionContext struct {
	ID          string                  `json:"id"`
	Query       string                  `json:"query"`
	DataSources DataSourceContext       `json:"data_sources"`
	NodeOutputs map[NodeType]NodeOutput `json:"node_outputs,omitempty"`

	Logger *slog.Logger `json:"-"`

	// EmitFragment streams one final-answer fragment to observers. The engine
	// sets it for the llm_processing node only; a returned error tells the
	// node to stop streaming (e.g. the execution was cancelled).
	EmitFragment func(index int, text string) error `json:"-"`
}

// RAGOutput returns the rag_query output if that node completed.
func (c ExecutionContext) RAGOutput() (*RAGQueryOutput, bool) {
	out, ok := c.NodeOutputs[NodeRAGQuery].(*RAGQueryOutput)
	return out, ok
}

// Routing returns the router decision if that node completed.
func (c ExecutionContext) Routing() (*RoutingDecision, bool) {
	out, ok := c.NodeOutputs[NodeRouter].(*RoutingDecision)
	return out, ok
}

// SQLOutput returns the sql_agent output if that node completed.
func (c ExecutionContext) SQLOutput() (*StructuredQueryResult, bool) {
	out, ok := c.NodeOutputs[NodeSQLAgent].(*StructuredQueryResult)
	return out, ok
}

// Chart returns the chart_process output if that node completed.
func (c ExecutionContext) Chart() (*ChartSpec, bool) {
	out, ok := c.NodeOutputs[NodeChartProcess].(*ChartSpec)
	return out, ok
}

// WithLogger returns a copy of the context using the given logger.
func (c ExecutionContext) WithLogger(logger *slog.Logger) ExecutionContext {
	c.Logger = logger
	return c
}
