// Package chartprocess provides the chart node: it inspects the structured
// result and decides whether a chart adds value, and which kind.
package chartprocess

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datalens-ai/datalens/pkg/models"
)

type ChartProcessNode struct {
	pieCardinality int
}

func NewChartProcessNode(pieCardinality int) (*ChartProcessNode, error) {
	if pieCardinality < 1 {
		return nil, fmt.Errorf("pie cardinality must be at least 1, got %d", pieCardinality)
	}

	return &ChartProcessNode{pieCardinality: pieCardinality}, nil
}

func (n *ChartProcessNode) ID() models.NodeType {
	return models.NodeChartProcess
}

// Execute is total: absent or unchartable data yields an unsuitable spec
// with a reason, never an error.
func (n *ChartProcessNode) Execute(_ context.Context, execCtx models.ExecutionContext) (*models.NodeResult, error) {
	structured, _ := execCtx.SQLOutput()
	spec := n.buildSpec(structured)

	if execCtx.Logger != nil {
		execCtx.Logger.Info("Chart decision made",
			"suitable", spec.Suitable,
			"chart_type", spec.ChartType,
			"reason", spec.Reason,
		)
	}

	return &models.NodeResult{
		NodeID: models.NodeChartProcess,
		Output: spec,
	}, nil
}

func (n *ChartProcessNode) buildSpec(structured *models.StructuredQueryResult) *models.ChartSpec {
	if structured == nil {
		return &models.ChartSpec{Suitable: false, Reason: "no structured result available"}
	}

	if len(structured.Columns) < 2 || len(structured.SampleRows) < 2 {
		return &models.ChartSpec{Suitable: false, Reason: "result has fewer than two dimensions or two data points"}
	}

	labelCol, valueCol, ok := chartAxes(structured)
	if !ok {
		return &models.ChartSpec{Suitable: false, Reason: "no numeric value column found"}
	}

	points := make([]models.DataPoint, 0, len(structured.SampleRows))

	for _, row := range structured.SampleRows {
		if labelCol >= len(row) || valueCol >= len(row) {
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueCol]), 64)
		if err != nil {
			continue
		}

		points = append(points, models.DataPoint{Label: row[labelCol], Value: value})
	}

	if len(points) < 2 {
		return &models.ChartSpec{Suitable: false, Reason: "fewer than two usable data points"}
	}

	spec := &models.ChartSpec{
		DataPoints: points,
		Suitable:   true,
	}

	switch {
	case len(points) <= n.pieCardinality:
		spec.ChartType = models.ChartTypePie
		spec.Reason = fmt.Sprintf("low cardinality (%d categories)", len(points))
	case timeAxis(structured.Columns[labelCol], points):
		spec.ChartType = models.ChartTypeLine
		spec.Reason = "time-like label axis"
	default:
		spec.ChartType = models.ChartTypeBar
		spec.Reason = fmt.Sprintf("high cardinality (%d categories)", len(points))
	}

	return spec
}

// chartAxes picks the first column whose values all parse as numbers for the
// value axis, and the first other column for the label axis.
func chartAxes(structured *models.StructuredQueryResult) (labelCol, valueCol int, ok bool) {
	valueCol = -1

	for col := range structured.Columns {
		numeric := true

		for _, row := range structured.SampleRows {
			if col >= len(row) {
				numeric = false

				break
			}

			if _, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err != nil {
				numeric = false

				break
			}
		}

		if numeric {
			valueCol = col

			break
		}
	}

	if valueCol < 0 {
		return 0, 0, false
	}

	for col := range structured.Columns {
		if col != valueCol {
			return col, valueCol, true
		}
	}

	return 0, 0, false
}

var timeColumnNames = map[string]bool{
	"date": true, "day": true, "week": true, "month": true,
	"quarter": true, "year": true, "time": true, "timestamp": true,
}

var timeLayouts = []string{"2006-01-02", "2006-01", "2006/01/02", "Jan 2006", "15:04"}

// timeAxis reports whether the label axis looks like a time dimension, by
// column name or by the labels themselves parsing as dates.
func timeAxis(columnName string, points []models.DataPoint) bool {
	if timeColumnNames[strings.ToLower(columnName)] {
		return true
	}

	for _, layout := range timeLayouts {
		parsed := true

		for _, p := range points {
			if _, err := time.Parse(layout, strings.TrimSpace(p.Label)); err != nil {
				parsed = false

				break
			}
		}

		if parsed {
			return true
		}
	}

	return false
}
