package main

import (
	"bytes"
	"testing"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, name := range []string{"run", "doctor"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestRunDoctor_ReportsUnconfiguredProvidersByDefault(t *testing.T) {
	cmd := buildDoctorCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/nonexistent/path/agent.yaml"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("doctor: %v", err)
	}

	got := out.String()
	if !bytes.Contains(out.Bytes(), []byte("anthropic: not configured")) {
		t.Errorf("expected anthropic to be reported unconfigured, got:\n%s", got)
	}
	if !bytes.Contains(out.Bytes(), []byte("No provider API keys configured")) {
		t.Errorf("expected the no-provider warning, got:\n%s", got)
	}
}

func TestRunGoal_FailsFastWithoutAnyProviderConfigured(t *testing.T) {
	cmd := buildRunCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/nonexistent/path/agent.yaml", "go to example.com"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error when no LLM provider is configured")
	}
}
