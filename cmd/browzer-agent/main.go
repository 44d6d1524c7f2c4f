// Package main provides the CLI entry point for the browser agent engine.
//
// browzer-agent drives a live Chrome target over the DevTools protocol with
// an LLM-backed ReAct loop: point it at a goal and a remote-debugging
// endpoint and it observes the page, decides on an action, executes it
// through the Tool Registry, and repeats until the goal is met or its
// iteration budget runs out.
//
// # Basic usage
//
// Run one goal against a live Chrome instance:
//
//	browzer-agent run --config agent.yaml --tab-id mytab "log into the dashboard"
//
// Check resolved configuration and provider availability:
//
//	browzer-agent doctor --config agent.yaml
//
// # Environment variables
//
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - OPENAI_API_KEY: OpenAI API key for GPT-compatible models
//   - GEMINI_API_KEY: Gemini API key, routed through the OpenAI-compatible adapter
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached. This
// is separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "browzer-agent",
		Short: "browzer-agent - a CDP-driven ReAct browser agent",
		Long: `browzer-agent drives a live Chrome target over the DevTools protocol
with an LLM-backed ReAct loop: observe the page, decide on an action,
execute it, and repeat until the goal is met or the step budget runs out.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildRunCmd(), buildDoctorCmd())
	return rootCmd
}
