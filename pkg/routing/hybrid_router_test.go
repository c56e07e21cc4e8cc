package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/models"
)

func newTestRouter() *HybridRouter {
	return NewHybridRouter(config.Default().Routing)
}

func TestHybridRouter_Decide(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name        string
		query       string
		sources     models.DataSourceContext
		wantSQL     bool
		wantRule    models.RoutingRule
	}{
		{
			name:     "structured intent with structured source",
			query:    "total sales this month",
			sources:  models.DataSourceContext{HasStructured: true},
			wantSQL:  true,
			wantRule: models.RuleStructuredIntent,
		},
		{
			name:     "descriptive intent with document source",
			query:    "what is our return policy",
			sources:  models.DataSourceContext{HasDocuments: true},
			wantSQL:  false,
			wantRule: models.RuleDescriptiveIntent,
		},
		{
			name:     "structured intent wins over descriptive when both match",
			query:    "what is the total revenue per month",
			sources:  models.DataSourceContext{HasDocuments: true, HasStructured: true},
			wantSQL:  true,
			wantRule: models.RuleStructuredIntent,
		},
		{
			name:     "structured phrase but no structured source falls through",
			query:    "total sales this month",
			sources:  models.DataSourceContext{HasDocuments: true},
			wantSQL:  false,
			wantRule: models.RuleAvailabilityDefault,
		},
		{
			name:     "no intent match with structured source defaults to SQL",
			query:    "compare supplier delivery performance",
			sources:  models.DataSourceContext{HasStructured: true},
			wantSQL:  true,
			wantRule: models.RuleAvailabilityDefault,
		},
		{
			name:     "no intent match with only documents skips SQL",
			query:    "compare supplier delivery performance",
			sources:  models.DataSourceContext{HasDocuments: true},
			wantSQL:  false,
			wantRule: models.RuleAvailabilityDefault,
		},
		{
			name:     "no sources never errors",
			query:    "total sales",
			sources:  models.DataSourceContext{},
			wantSQL:  false,
			wantRule: models.RuleNoSources,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := router.Decide(tt.query, tt.sources)

			assert.Equal(t, tt.wantSQL, decision.NeedsStructuredQuery)
			assert.Equal(t, tt.wantRule, decision.RuleTriggered)
			assert.NotEmpty(t, decision.Rationale)
		})
	}
}

func TestHybridRouter_Deterministic(t *testing.T) {
	router := newTestRouter()
	sources := models.DataSourceContext{HasDocuments: true, HasStructured: true}

	first := router.Decide("How many orders were placed?", sources)

	for range 10 {
		assert.Equal(t, first, router.Decide("How many orders were placed?", sources))
	}
}

func TestHybridRouter_CaseInsensitive(t *testing.T) {
	router := newTestRouter()

	decision := router.Decide("TOTAL Sales THIS Month", models.DataSourceContext{HasStructured: true})

	assert.True(t, decision.NeedsStructuredQuery)
	assert.Equal(t, models.RuleStructuredIntent, decision.RuleTriggered)
}

func TestHybridRouter_NoSourcesAsksForUpload(t *testing.T) {
	router := newTestRouter()

	decision := router.Decide("anything", models.DataSourceContext{})

	assert.False(t, decision.NeedsStructuredQuery)
	assert.Contains(t, decision.Rationale, "upload")
}
