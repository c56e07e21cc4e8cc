// Package routing implements the query classification policy that decides
// whether the structured-query pathway is exercised for a given query.
package routing

import (
	"strings"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/models"
)

// HybridRouter is a stateless, pure classifier. Decide is total and
// deterministic: the same query and capability set always yield the same
// decision, and no input produces an error.
type HybridRouter struct {
	structuredVocabulary  []string
	descriptiveVocabulary []string
}

// NewHybridRouter creates a router with the given vocabulary configuration.
func NewHybridRouter(cfg config.RoutingConfig) *HybridRouter {
	return &HybridRouter{
		structuredVocabulary:  cfg.StructuredVocabulary,
		descriptiveVocabulary: cfg.DescriptiveVocabulary,
	}
}

// Decide evaluates the routing rules in fixed priority order:
//  1. structured-intent phrase and a structured source registered -> SQL
//  2. descriptive-intent phrase and a document source registered -> no SQL
//  3. availability fallback: structured source present -> SQL, else no SQL
//
// Rule 1 beats rule 2 when both vocabularies match.
func (r *HybridRouter) Decide(query string, sources models.DataSourceContext) models.RoutingDecision {
	if !sources.HasStructured && !sources.HasDocuments {
		return models.RoutingDecision{
			NeedsStructuredQuery: false,
			RuleTriggered:        models.RuleNoSources,
			Rationale:            "no data sources registered; upload a document or connect a table before querying",
		}
	}

	normalized := strings.ToLower(query)

	if phrase, ok := matchVocabulary(normalized, r.structuredVocabulary); ok && sources.HasStructured {
		return models.RoutingDecision{
			NeedsStructuredQuery: true,
			RuleTriggered:        models.RuleStructuredIntent,
			Rationale:            "query matches structured intent phrase " + quote(phrase) + " and a structured source is registered",
		}
	}

	if phrase, ok := matchVocabulary(normalized, r.descriptiveVocabulary); ok && sources.HasDocuments {
		return models.RoutingDecision{
			NeedsStructuredQuery: false,
			RuleTriggered:        models.RuleDescriptiveIntent,
			Rationale:            "query matches descriptive intent phrase " + quote(phrase) + " and a document source is registered",
		}
	}

	if sources.HasStructured {
		return models.RoutingDecision{
			NeedsStructuredQuery: true,
			RuleTriggered:        models.RuleAvailabilityDefault,
			Rationale:            "no intent phrase matched; a structured source is registered so the structured pathway runs",
		}
	}

	return models.RoutingDecision{
		NeedsStructuredQuery: false,
		RuleTriggered:        models.RuleAvailabilityDefault,
		Rationale:            "no intent phrase matched and only a document source is registered",
	}
}

func matchVocabulary(normalizedQuery string, vocabulary []string) (string, bool) {
	for _, phrase := range vocabulary {
		if strings.Contains(normalizedQuery, phrase) {
			return phrase, true
		}
	}

	return "", false
}

func quote(phrase string) string {
	return "'" + phrase + "'"
}
