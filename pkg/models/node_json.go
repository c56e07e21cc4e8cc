package models

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes the node output into its concrete variant based on
// the node identifier. Needed because Output is an interface; the variant
// set is closed so the mapping is exhaustive.
func (n *NodeExecution) UnmarshalJSON(data []byte) error {
	type nodeExecution NodeExecution

	aux := struct {
		*nodeExecution

		Output json.RawMessage `json:"output,omitempty"`
	}{nodeExecution: (*nodeExecution)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.Output) == 0 || string(aux.Output) == "null" {
		return nil
	}

	var output NodeOutput

	switch n.NodeID {
	case NodeRAGQuery:
		output = &RAGQueryOutput{}
	case NodeRouter:
		output = &RoutingDecision{}
	case NodeSQLAgent:
		output = &StructuredQueryResult{}
	case NodeChartProcess:
		output = &ChartSpec{}
	case NodeLLMProcessing:
		output = &AnswerOutput{}
	default:
		return fmt.Errorf("unknown node identifier %q", n.NodeID)
	}

	if err := json.Unmarshal(aux.Output, output); err != nil {
		return fmt.Errorf("failed to decode %s output: %w", n.NodeID, err)
	}

	n.Output = output

	return nil
}
