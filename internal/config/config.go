// Package config defines the run configuration for the orchestrator. The
// configuration is constructed once (defaults, then YAML file, then
// environment overrides) and passed by reference into the team, actions, and
// store collaborators; there is no package-level mutable state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/modeval/modeval/internal/llm"
	"github.com/modeval/modeval/internal/rag"
)

// LLMConfig holds the external model settings handed to the provider layer.
type LLMConfig struct {
	APIType string `yaml:"api_type"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// CostPer1KTokens prices estimated usage against the run budget.
	CostPer1KTokens float64 `yaml:"cost_per_1k_tokens"`

	Retry llm.RetryConfig `yaml:"retry"`
}

// RunConfig is the complete configuration for a modularization or
// evaluation run.
type RunConfig struct {
	// ProjectPath is the directory of the project under evaluation.
	ProjectPath string `yaml:"project_path"`
	// WorkspacePath is where documents, indexes, and summaries are written.
	WorkspacePath string `yaml:"workspace_path"`
	// Investment is the advisory budget for a run. It never blocks
	// scheduling; exhaustion only produces a warning.
	Investment float64 `yaml:"investment"`
	// TotalRounds bounds the outer pipeline run.
	TotalRounds int `yaml:"total_rounds"`
	// EvaluationRounds bounds each adversarial debate.
	EvaluationRounds int `yaml:"evaluation_rounds"`

	LLM    LLMConfig         `yaml:"llm"`
	Search rag.SearchOptions `yaml:"search"`
}

// DefaultRunConfig returns the defaults used when no file is supplied.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		ProjectPath:      "./workspace",
		WorkspacePath:    "./workspace/.modeval",
		Investment:       5.0,
		TotalRounds:      8,
		EvaluationRounds: 3,
		LLM: LLMConfig{
			APIType:         "openai",
			Model:           "gpt-4-turbo",
			BaseURL:         "https://api.openai.com/v1",
			CostPer1KTokens: 0.01,
			Retry:           llm.DefaultRetryConfig(),
		},
		Search: rag.DefaultSearchOptions(),
	}
}

// LoadRunConfig reads a YAML file over the defaults and applies environment
// overrides. An empty path loads defaults plus environment only.
func LoadRunConfig(path string) (*RunConfig, error) {
	cfg := DefaultRunConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from MODEVAL_* environment variables.
func (c *RunConfig) applyEnv() {
	if v := os.Getenv("MODEVAL_PROJECT_PATH"); v != "" {
		c.ProjectPath = v
	}
	if v := os.Getenv("MODEVAL_WORKSPACE_PATH"); v != "" {
		c.WorkspacePath = v
	}
	if v := os.Getenv("MODEVAL_TOTAL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TotalRounds = n
		}
	}
	if v := os.Getenv("MODEVAL_EVALUATION_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.EvaluationRounds = n
		}
	}
	if v := os.Getenv("MODEVAL_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("MODEVAL_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("MODEVAL_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
}

// Validate checks the invariants the scheduler depends on.
func (c *RunConfig) Validate() error {
	if c.TotalRounds < 1 {
		return fmt.Errorf("total_rounds must be at least 1, got %d", c.TotalRounds)
	}
	if c.EvaluationRounds < 1 {
		return fmt.Errorf("evaluation_rounds must be at least 1, got %d", c.EvaluationRounds)
	}
	if c.Investment < 0 {
		return fmt.Errorf("investment must not be negative, got %f", c.Investment)
	}
	if c.LLM.CostPer1KTokens < 0 {
		return fmt.Errorf("cost_per_1k_tokens must not be negative, got %f", c.LLM.CostPer1KTokens)
	}
	return nil
}

// defaultConfigTemplate is written by InitConfigFile.
const defaultConfigTemplate = `# modeval configuration
project_path: "./workspace"
workspace_path: "./workspace/.modeval"
investment: 5.0
total_rounds: 8
evaluation_rounds: 3
llm:
  api_type: "openai"   # or azure / ollama / groq etc.
  model: "gpt-4-turbo"
  base_url: "https://api.openai.com/v1"
  api_key: "YOUR_API_KEY"
  cost_per_1k_tokens: 0.01
`

// InitConfigFile writes the default configuration template to path, backing
// up an existing file to path with a .bak suffix first.
func InitConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		backup := path + ".bak"
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up existing config: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
