// Package config loads the engine's YAML configuration, with environment
// variables taking precedence over file values for provider credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the agentic execution engine.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Orch       OrchestratorConfig `yaml:"orchestrator"`
	Context    ContextConfig    `yaml:"context"`
	DOMPruner  DOMPrunerConfig  `yaml:"dom_pruner"`
	A11y       A11yConfig       `yaml:"accessibility"`
	Recorder   RecorderConfig   `yaml:"recorder"`
	CDP        CDPConfig        `yaml:"cdp"`
}

// LLMConfig lists the providers the orchestrator may route to. DefaultModel
// and FallbackModel name a provider adapter (e.g. "anthropic", "openai"),
// matching each llm.Provider's Name() — they select which adapter handles a
// task, not the literal model ID that adapter sends upstream.
type LLMConfig struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	DefaultModel    string `yaml:"default_model"`
	FallbackModel   string `yaml:"fallback_model"`
}

// OrchestratorConfig governs the executeTask workflow.
type OrchestratorConfig struct {
	Mode                         string        `yaml:"mode"`
	MaxExecutionSteps            int           `yaml:"max_execution_steps"`
	MaxThinkingTime              time.Duration `yaml:"max_thinking_time"`
	Temperature                  float64       `yaml:"temperature"`
	MaxContextTokens             int           `yaml:"max_context_tokens"`
	ContextCompressionEnabled    bool          `yaml:"context_compression_enabled"`
	MaxRetries                   int           `yaml:"max_retries"`
	RetryDelay                   time.Duration `yaml:"retry_delay"`
	DangerousActionsRequireApproval []string   `yaml:"dangerous_actions_require_approval"`
	AllowedDomains               []string      `yaml:"allowed_domains"`
	EnableReflection             bool          `yaml:"enable_reflection"`
	EnablePlanning               bool          `yaml:"enable_planning"`
	EnableMemory                 bool          `yaml:"enable_memory"`
	StreamingEnabled              bool         `yaml:"streaming_enabled"`
}

// ContextConfig bounds the Memory Manager's token budget.
type ContextConfig struct {
	Strategy     string `yaml:"strategy"` // sliding_window | compression | importance_based | hierarchical
	TargetTokens int    `yaml:"target_tokens"`
}

// DOMPrunerConfig bounds the DOM Pruner.
type DOMPrunerConfig struct {
	MaxElements          int `yaml:"max_elements"`
	MinInteractivityScore int `yaml:"min_interactivity_score"`
	MaxDepth             int `yaml:"max_depth"`
}

// A11yConfig bounds the Accessibility Tree Extractor.
type A11yConfig struct {
	MaxDepth int `yaml:"max_depth"`
	MaxNodes int `yaml:"max_nodes"`
}

// RecorderConfig bounds the Action Recorder & Verifier.
type RecorderConfig struct {
	VerificationDelay    time.Duration `yaml:"verification_delay"`
	VerificationDeadline time.Duration `yaml:"verification_deadline"`
	NetworkWindow        time.Duration `yaml:"network_window"`
}

// CDPConfig points at the remote-debugging target.
type CDPConfig struct {
	RemoteAddr string `yaml:"remote_addr"`
}

// Default returns the engine's built-in defaults, matching the numeric
// defaults named throughout spec.md (maxExecutionSteps=20, maxIterations=10
// at the ReAct engine layer, minInteractivityScore=30, etc.).
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			DefaultModel: "anthropic",
		},
		Orch: OrchestratorConfig{
			Mode:                      "autonomous",
			MaxExecutionSteps:         20,
			MaxThinkingTime:           300 * time.Second,
			Temperature:               0.2,
			MaxContextTokens:          100_000,
			ContextCompressionEnabled: true,
			MaxRetries:                3,
			RetryDelay:                time.Second,
			EnableReflection:          true,
			EnableMemory:              true,
			StreamingEnabled:          true,
		},
		Context: ContextConfig{
			Strategy:     "hierarchical",
			TargetTokens: 30_000,
		},
		DOMPruner: DOMPrunerConfig{
			MaxElements:           50,
			MinInteractivityScore: 30,
			MaxDepth:              5,
		},
		A11y: A11yConfig{
			MaxDepth: 10,
			MaxNodes: 200,
		},
		Recorder: RecorderConfig{
			VerificationDelay:    500 * time.Millisecond,
			VerificationDeadline: 1000 * time.Millisecond,
			NetworkWindow:        1500 * time.Millisecond,
		},
		CDP: CDPConfig{
			RemoteAddr: "http://127.0.0.1:9222",
		},
	}
}

// Load reads a YAML file at path (if non-empty and present) over the
// defaults, then applies environment variable overrides for provider keys.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides provider credentials from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
}

// HasAnyProvider reports whether at least one LLM provider key is present.
// Absence of all keys disables the orchestrator.
func (c *Config) HasAnyProvider() bool {
	return c.LLM.AnthropicAPIKey != "" || c.LLM.OpenAIAPIKey != "" || c.LLM.GeminiAPIKey != ""
}
