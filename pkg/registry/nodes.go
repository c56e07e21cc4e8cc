package registry

import (
	"github.com/datalens-ai/datalens/pkg/nodes/chartprocess"
	"github.com/datalens-ai/datalens/pkg/nodes/llmprocessing"
	"github.com/datalens-ai/datalens/pkg/nodes/ragquery"
	"github.com/datalens-ai/datalens/pkg/nodes/router"
	"github.com/datalens-ai/datalens/pkg/nodes/sqlagent"
)

// RegisterDefaultNodes registers the factories for the five workflow nodes.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(ragquery.NewRAGQueryNodeFactory())
	r.RegisterNode(router.NewRouterNodeFactory())
	r.RegisterNode(sqlagent.NewSQLAgentNodeFactory())
	r.RegisterNode(chartprocess.NewChartProcessNodeFactory())
	r.RegisterNode(llmprocessing.NewLLMProcessingNodeFactory())
}
