package models

import "time"

// ExecutionStatus represents the lifecycle state of an execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status is final.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// Execution is one end-to-end workflow run for a single submitted query.
// The owning engine is the only writer while the run is live; readers get
// snapshots through the execution store.
type Execution struct {
	ID          string          `json:"id"`
	Query       string          `json:"query"`
	Status      ExecutionStatus `json:"status"`
	DataSources DataSourceContext `json:"data_sources"`

	// NodeStates is kept in execution order; one entry per node identifier.
	NodeStates []*NodeExecution `json:"node_states"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// FinalAnswer grows incrementally while the llm_processing node streams
	// fragments and is frozen once the execution reaches a terminal state.
	FinalAnswer string `json:"final_answer,omitempty"`

	// FailureReason carries the error kind that failed the execution.
	FailureReason ErrorKind `json:"failure_reason,omitempty"`
}

// NodeState returns the node execution entry for the given node, or nil.
func (e *Execution) NodeState(id NodeType) *NodeExecution {
	for _, ns := range e.NodeStates {
		if ns.NodeID == id {
			return ns
		}
	}

	return nil
}

// NewExecution creates a pending execution with one pending node entry per
// node in the fixed sequence.
func NewExecution(id, query string, sources DataSourceContext) *Execution {
	states := make([]*NodeExecution, 0, len(NodeSequence))
	for _, nodeID := range NodeSequence {
		states = append(states, &NodeExecution{
			NodeID: nodeID,
			Status: NodeStatusPending,
		})
	}

	return &Execution{
		ID:          id,
		Query:       query,
		Status:      ExecutionStatusPending,
		DataSources: sources,
		NodeStates:  states,
		StartedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy safe to hand to readers while the engine keeps
// mutating the original.
func (e *Execution) Clone() *Execution {
	clone := *e

	clone.NodeStates = make([]*NodeExecution, len(e.NodeStates))
	for i, ns := range e.NodeStates {
		nsCopy := *ns
		clone.NodeStates[i] = &nsCopy
	}

	if e.EndedAt != nil {
		ended := *e.EndedAt
		clone.EndedAt = &ended
	}

	return &clone
}
