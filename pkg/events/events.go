// Package events defines event types and structures for execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/datalens-ai/datalens/pkg/models"
)

type EventType string

// Topic prefix for per-execution event streams.
const TopicPrefix = "datalens.executions."

const EventTypeMetadataKey = "event_type"
const EventSequenceMetadataKey = "sequence"

const (
	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"

	// Node lifecycle events.
	NodeStartedEvent   EventType = "node.started"
	NodeCompletedEvent EventType = "node.completed"
	NodeSkippedEvent   EventType = "node.skipped"
	NodeErrorEvent     EventType = "node.error"

	// Final answer streaming events.
	AnswerFragmentEvent  EventType = "answer.fragment"
	AnswerCompletedEvent EventType = "answer.completed"
)

// Topic returns the event topic for one execution's stream.
func Topic(executionID string) string {
	return TopicPrefix + executionID
}

// BaseEvent carries the envelope shared by all lifecycle events. Sequence is
// assigned by the publishing engine and increases monotonically within one
// execution; observers rely on it to detect ordering violations.
type BaseEvent struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	ExecutionID string          `json:"execution_id"`
	NodeID      models.NodeType `json:"node_id,omitempty"` // empty for execution-level events
	Sequence    uint64          `json:"sequence"`
	Timestamp   time.Time       `json:"timestamp"`
}

type Event interface {
	GetType() EventType
	GetSequence() uint64
	Base() *BaseEvent
}

func (b *BaseEvent) GetSequence() uint64 { return b.Sequence }
func (b *BaseEvent) Base() *BaseEvent    { return b }

type ExecutionStarted struct {
	BaseEvent

	Query       string                   `json:"query"`
	DataSources models.DataSourceContext `json:"data_sources"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Status        string `json:"status"`
	DurationMs    int64  `json:"duration_ms"`
	NodesExecuted int    `json:"nodes_executed"`
	FinalAnswer   string `json:"final_answer"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	Status        string           `json:"status"`
	DurationMs    int64            `json:"duration_ms"`
	ErrorKind     models.ErrorKind `json:"error_kind"`
	ErrorMessage  string           `json:"error_message"`
	FailedNode    models.NodeType  `json:"failed_node,omitempty"`
	NodesExecuted int              `json:"nodes_executed"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type NodeStarted struct {
	BaseEvent

	Input []models.NodeType `json:"input,omitempty"`
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeCompleted struct {
	BaseEvent

	DurationMs int64          `json:"duration_ms"`
	Output     map[string]any `json:"output,omitempty"`
}

func (e NodeCompleted) GetType() EventType {
	return NodeCompletedEvent
}

type NodeSkipped struct {
	BaseEvent

	Reason string `json:"reason"`
}

func (e NodeSkipped) GetType() EventType {
	return NodeSkippedEvent
}

type NodeError struct {
	BaseEvent

	ErrorKind    models.ErrorKind `json:"error_kind"`
	ErrorMessage string           `json:"error_message"`
	DurationMs   int64            `json:"duration_ms"`
}

func (e NodeError) GetType() EventType {
	return NodeErrorEvent
}

type AnswerFragment struct {
	BaseEvent

	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (e AnswerFragment) GetType() EventType {
	return AnswerFragmentEvent
}

type AnswerCompleted struct {
	BaseEvent

	FragmentCount int `json:"fragment_count"`
}

func (e AnswerCompleted) GetType() EventType {
	return AnswerCompletedEvent
}

// NewBaseEvent builds the shared envelope. The sequence number is stamped by
// the publisher, not here, so construction stays side-effect free.
func NewBaseEvent(eventType EventType, executionID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		ExecutionID: executionID,
		Timestamp:   time.Now().UTC(),
	}
}

// NewNodeEvent builds the envelope for a node-scoped event.
func NewNodeEvent(eventType EventType, executionID string, nodeID models.NodeType) BaseEvent {
	base := NewBaseEvent(eventType, executionID)
	base.NodeID = nodeID

	return base
}
