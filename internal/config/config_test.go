package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Orch.MaxExecutionSteps != 20 {
		t.Errorf("MaxExecutionSteps = %d, want 20", cfg.Orch.MaxExecutionSteps)
	}
	if cfg.LLM.DefaultModel != "anthropic" {
		t.Errorf("DefaultModel = %q, want %q", cfg.LLM.DefaultModel, "anthropic")
	}
}

func TestLoad_MissingFileFallsBackToDefaultsWithoutError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error for a missing file: %v", err)
	}
	if cfg.Orch.Mode != "autonomous" {
		t.Errorf("Mode = %q, want %q", cfg.Orch.Mode, "autonomous")
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	yaml := []byte(`
orchestrator:
  max_execution_steps: 5
  mode: supervised
context:
  strategy: sliding_window
  target_tokens: 1000
`)
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Orch.MaxExecutionSteps != 5 {
		t.Errorf("MaxExecutionSteps = %d, want 5", cfg.Orch.MaxExecutionSteps)
	}
	if cfg.Orch.Mode != "supervised" {
		t.Errorf("Mode = %q, want %q", cfg.Orch.Mode, "supervised")
	}
	if cfg.Context.Strategy != "sliding_window" || cfg.Context.TargetTokens != 1000 {
		t.Errorf("Context = %+v, want strategy=sliding_window target=1000", cfg.Context)
	}
	// Untouched sections keep their defaults.
	if cfg.DOMPruner.MaxElements != 50 {
		t.Errorf("DOMPruner.MaxElements = %d, want the default 50", cfg.DOMPruner.MaxElements)
	}
}

func TestLoad_MalformedYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestLoad_EnvironmentOverridesProviderKeys(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "sk-oai-test")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.AnthropicAPIKey != "sk-ant-test" {
		t.Errorf("AnthropicAPIKey = %q, want env override", cfg.LLM.AnthropicAPIKey)
	}
	if cfg.LLM.OpenAIAPIKey != "sk-oai-test" {
		t.Errorf("OpenAIAPIKey = %q, want env override", cfg.LLM.OpenAIAPIKey)
	}
	if cfg.LLM.GeminiAPIKey != "" {
		t.Errorf("GeminiAPIKey = %q, want empty (env var set to empty string)", cfg.LLM.GeminiAPIKey)
	}
}

func TestLoad_EnvOverridesWinOverYAMLValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	yaml := []byte("llm:\n  anthropic_api_key: from-file\n")
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.AnthropicAPIKey != "from-env" {
		t.Errorf("AnthropicAPIKey = %q, want the env override to win over the file", cfg.LLM.AnthropicAPIKey)
	}
}

func TestHasAnyProvider(t *testing.T) {
	cfg := Default()
	if cfg.HasAnyProvider() {
		t.Error("expected a fresh default config to have no providers configured")
	}
	cfg.LLM.OpenAIAPIKey = "sk-oai"
	if !cfg.HasAnyProvider() {
		t.Error("expected HasAnyProvider to be true once a key is set")
	}
}
