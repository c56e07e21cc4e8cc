// Package models provides standardized error kinds for workflow execution.
package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies node and execution failures for observers.
type ErrorKind string

const (
	ErrKindRetrieval        ErrorKind = "retrieval_error"
	ErrKindRerank           ErrorKind = "rerank_error"
	ErrKindStructuredQuery  ErrorKind = "structured_query_error"
	ErrKindAnswerGeneration ErrorKind = "answer_generation_error"
	ErrKindCancelled        ErrorKind = "cancelled"
	ErrKindInternal         ErrorKind = "internal_error"
)

// ErrExecutionCancelled is the sentinel for caller-initiated cancellation.
var ErrExecutionCancelled = errors.New("execution cancelled")

// NodeFailure wraps a node-fatal error with the failing node and its kind so
// the engine can cascade it into a failed execution with a reason code.
type NodeFailure struct {
	NodeID  NodeType
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *NodeFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node %s failed (%s): %s: %v", e.NodeID, e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("node %s failed (%s): %s", e.NodeID, e.Kind, e.Message)
}

func (e *NodeFailure) Unwrap() error {
	return e.Err
}

// NewNodeFailure creates a node failure with context.
func NewNodeFailure(nodeID NodeType, kind ErrorKind, message string, err error) *NodeFailure {
	return &NodeFailure{
		NodeID:  nodeID,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// FailureKind extracts the error kind from an error chain, defaulting to
// internal_error for unclassified failures. Cancellation wins over any node
// failure wrapper: a node interrupted mid-flight wraps the context error in
// its own failure, and the interruption, not the node's domain, is the kind
// observers must see.
func FailureKind(err error) ErrorKind {
	if errors.Is(err, ErrExecutionCancelled) || errors.Is(err, context.Canceled) {
		return ErrKindCancelled
	}

	var nf *NodeFailure
	if errors.As(err, &nf) {
		return nf.Kind
	}

	return ErrKindInternal
}

// IsCancelled checks if an error indicates a caller-initiated cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrExecutionCancelled)
}

// IsRetrievalError checks if an error chain carries a retrieval failure.
func IsRetrievalError(err error) bool {
	var nf *NodeFailure
	return errors.As(err, &nf) && nf.Kind == ErrKindRetrieval
}
