// Package config provides configuration loading for the workflow engine
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the config file. The
// vocabularies and the agent iteration cap are product tuning knobs, so they
// live here instead of being hard-coded in the nodes.
const (
	DefaultRetrievalTopK     = 10
	DefaultRerankTopK        = 3
	DefaultAgentIterationCap = 5
	DefaultSampleRowLimit    = 5
	DefaultPieCardinality    = 6
	DefaultRetention         = 30 * time.Minute
)

// DefaultStructuredVocabulary matches aggregation, quantity and trend intent.
var DefaultStructuredVocabulary = []string{
	"total", "sum", "count", "average", "avg", "max", "min",
	"how many", "how much", "trend", "per month", "per year",
	"this month", "this year", "top", "most", "least", "revenue", "sales",
}

// DefaultDescriptiveVocabulary matches definition and explanation intent.
var DefaultDescriptiveVocabulary = []string{
	"what is", "what are", "explain", "describe", "tell me about",
	"definition", "meaning", "policy", "overview", "summarize",
}

// WorkflowConfig holds the tunable policy constants of the workflow core.
type WorkflowConfig struct {
	Routing   RoutingConfig   `yaml:"routing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Agent     AgentConfig     `yaml:"agent"`
	Chart     ChartConfig     `yaml:"chart"`
	Store     StoreConfig     `yaml:"store"`
}

// RoutingConfig carries the intent vocabularies for the hybrid router.
type RoutingConfig struct {
	StructuredVocabulary  []string `yaml:"structured_vocabulary"`
	DescriptiveVocabulary []string `yaml:"descriptive_vocabulary"`
}

// RetrievalConfig bounds the rag_query candidate and reranked set sizes.
type RetrievalConfig struct {
	TopK       int `yaml:"top_k"`
	RerankTopK int `yaml:"rerank_top_k"`
}

// AgentConfig bounds the sql_agent reason-act-observe loop.
type AgentConfig struct {
	IterationCap   int `yaml:"iteration_cap"`
	SampleRowLimit int `yaml:"sample_row_limit"`
}

// ChartConfig holds the chart type selection thresholds.
type ChartConfig struct {
	PieCardinality int `yaml:"pie_cardinality"`
}

// StoreConfig controls execution retention in the execution store.
type StoreConfig struct {
	Retention time.Duration `yaml:"retention"`
}

// Default returns the built-in configuration.
func Default() WorkflowConfig {
	return WorkflowConfig{
		Routing: RoutingConfig{
			StructuredVocabulary:  DefaultStructuredVocabulary,
			DescriptiveVocabulary: DefaultDescriptiveVocabulary,
		},
		Retrieval: RetrievalConfig{
			TopK:       DefaultRetrievalTopK,
			RerankTopK: DefaultRerankTopK,
		},
		Agent: AgentConfig{
			IterationCap:   DefaultAgentIterationCap,
			SampleRowLimit: DefaultSampleRowLimit,
		},
		Chart: ChartConfig{
			PieCardinality: DefaultPieCardinality,
		},
		Store: StoreConfig{
			Retention: DefaultRetention,
		},
	}
}

// Load reads a workflow configuration from a YAML file, filling absent
// fields with defaults.
func Load(filepath string) (WorkflowConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return WorkflowConfig{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WorkflowConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&cfg)

	return cfg, nil
}

// LoadOrDefault attempts to load a config file, falling back to the built-in
// defaults when the file does not exist.
func LoadOrDefault(filepath string) WorkflowConfig {
	if filepath == "" {
		return Default()
	}

	cfg, err := Load(filepath)
	if err != nil {
		return Default()
	}

	return cfg
}

func applyDefaults(cfg *WorkflowConfig) {
	if len(cfg.Routing.StructuredVocabulary) == 0 {
		cfg.Routing.StructuredVocabulary = DefaultStructuredVocabulary
	}

	if len(cfg.Routing.DescriptiveVocabulary) == 0 {
		cfg.Routing.DescriptiveVocabulary = DefaultDescriptiveVocabulary
	}

	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = DefaultRetrievalTopK
	}

	if cfg.Retrieval.RerankTopK <= 0 {
		cfg.Retrieval.RerankTopK = DefaultRerankTopK
	}

	if cfg.Agent.IterationCap <= 0 {
		cfg.Agent.IterationCap = DefaultAgentIterationCap
	}

	if cfg.Agent.SampleRowLimit <= 0 {
		cfg.Agent.SampleRowLimit = DefaultSampleRowLimit
	}

	if cfg.Chart.PieCardinality <= 0 {
		cfg.Chart.PieCardinality = DefaultPieCardinality
	}

	if cfg.Store.Retention <= 0 {
		cfg.Store.Retention = DefaultRetention
	}
}

// Validate checks the configuration for inconsistent bounds.
func Validate(cfg WorkflowConfig) error {
	if cfg.Retrieval.RerankTopK > cfg.Retrieval.TopK {
		return fmt.Errorf("rerank_top_k (%d) must not exceed top_k (%d)", cfg.Retrieval.RerankTopK, cfg.Retrieval.TopK)
	}

	if cfg.Agent.IterationCap < 1 {
		return fmt.Errorf("iteration_cap must be at least 1, got %d", cfg.Agent.IterationCap)
	}

	return nil
}
