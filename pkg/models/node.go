// Package models defines the core domain models for analytical query executions.
package models

import (
	"time"
)

// NodeType identifies one stage of the fixed workflow graph.
type NodeType string

const (
	NodeRAGQuery      NodeType = "rag_query"
	NodeRouter        NodeType = "router"
	NodeSQLAgent      NodeType = "sql_agent"
	NodeChartProcess  NodeType = "chart_process"
	NodeLLMProcessing NodeType = "llm_processing"
)

// NodeSequence is the fixed topological order nodes run in. The only
// conditional edge in the graph is the SQLAgent skip after Router.
var NodeSequence = []NodeType{
	NodeRAGQuery,
	NodeRouter,
	NodeSQLAgent,
	NodeChartProcess,
	NodeLLMProcessing,
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusSkipped   NodeStatus = "skipped"
	NodeStatusErrored   NodeStatus = "errored"
)

// Terminal reports whether the status is a per-node terminal state.
func (s NodeStatus) Terminal() bool {
	return s == NodeStatusCompleted || s == NodeStatusSkipped || s == NodeStatusErrored
}

// NodeOutput is the closed set of node result payloads. Exactly one variant
// exists per node type; the engine matches exhaustively on Kind.
type NodeOutput interface {
	Kind() NodeType
}

// NodeExecution records one node's contribution to an execution.
type NodeExecution struct {
	NodeID    NodeType      `json:"node_id"`
	Status    NodeStatus    `json:"status"`
	Input     []NodeType    `json:"input,omitempty"` // upstream outputs consumed
	Output    NodeOutput    `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"` // present iff errored
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NodeResult is what a node hands back to the engine on success.
type NodeResult struct {
	NodeID NodeType   `json:"node_id"`
	Output NodeOutput `json:"output"`
}
