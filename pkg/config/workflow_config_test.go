package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultRetrievalTopK, cfg.Retrieval.TopK)
	assert.Equal(t, DefaultRerankTopK, cfg.Retrieval.RerankTopK)
	assert.Equal(t, DefaultAgentIterationCap, cfg.Agent.IterationCap)
	assert.Equal(t, DefaultRetention, cfg.Store.Retention)
	assert.NotEmpty(t, cfg.Routing.StructuredVocabulary)
	assert.NotEmpty(t, cfg.Routing.DescriptiveVocabulary)
	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	content := `
routing:
  structured_vocabulary: ["total", "sum"]
agent:
  iteration_cap: 3
store:
  retention: 5m
`

	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"total", "sum"}, cfg.Routing.StructuredVocabulary)
	assert.Equal(t, 3, cfg.Agent.IterationCap)
	assert.Equal(t, 5*time.Minute, cfg.Store.Retention)

	// Absent sections fall back to defaults.
	assert.Equal(t, DefaultRetrievalTopK, cfg.Retrieval.TopK)
	assert.Equal(t, DefaultDescriptiveVocabulary, cfg.Routing.DescriptiveVocabulary)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := LoadOrDefault("/nonexistent/workflow.yaml")
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.RerankTopK = cfg.Retrieval.TopK + 1

	assert.Error(t, Validate(cfg))
}
