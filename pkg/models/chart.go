package models

// ChartType enumerates the chart shapes the process node can propose.
type ChartType string

const (
	ChartTypeNone ChartType = ""
	ChartTypePie  ChartType = "pie"
	ChartTypeLine ChartType = "line"
	ChartTypeBar  ChartType = "bar"
)

// DataPoint is one renderable point of a chart.
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSpec is the chart_process node payload. Suitable=false is a normal
// outcome meaning the node declined to chart, not a failure.
type ChartSpec struct {
	ChartType  ChartType   `json:"chart_type"`
	DataPoints []DataPoint `json:"data_points,omitempty"`
	Suitable   bool        `json:"suitable"`
	Reason     string      `json:"reason,omitempty"`
}

func (o *ChartSpec) Kind() NodeType { return NodeChartProcess }

// AnswerOutput is the llm_processing node payload: the fully accumulated
// final answer after the fragment stream terminated.
type AnswerOutput struct {
	Answer        string `json:"answer"`
	FragmentCount int    `json:"fragment_count"`
}

func (o *AnswerOutput) Kind() NodeType { return NodeLLMProcessing }
