package models

// RoutingRule identifies which routing heuristic produced a decision.
type RoutingRule string

const (
	RuleStructuredIntent    RoutingRule = "structured_intent"    // aggregation vocabulary + structured source
	RuleDescriptiveIntent   RoutingRule = "descriptive_intent"   // descriptive vocabulary + document source
	RuleAvailabilityDefault RoutingRule = "availability_default" // fall back to whichever source exists
	RuleNoSources           RoutingRule = "no_sources"           // nothing registered, ask for an upload
)

// RoutingDecision is produced once per execution by the router node and is
// immutable afterwards; no downstream node may override it.
type RoutingDecision struct {
	NeedsStructuredQuery bool        `json:"needs_structured_query"`
	Rationale            string      `json:"rationale"`
	RuleTriggered        RoutingRule `json:"rule_triggered"`
}

func (o *RoutingDecision) Kind() NodeType { return NodeRouter }
