package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/browzer-labs/browzer-agent/internal/config"
)

// buildDoctorCmd creates the "doctor" command: it loads the resolved
// configuration and reports which LLM providers are usable without
// attaching to a browser or making any network calls.
func buildDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Print resolved configuration and provider availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file (optional)")
	return cmd
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Resolved configuration")
	fmt.Fprintln(out, "======================")
	fmt.Fprintf(out, "Mode:                  %s\n", cfg.Orch.Mode)
	fmt.Fprintf(out, "Default model:         %s\n", cfg.LLM.DefaultModel)
	fmt.Fprintf(out, "Fallback model:        %s\n", orNone(cfg.LLM.FallbackModel))
	fmt.Fprintf(out, "Max execution steps:   %d\n", cfg.Orch.MaxExecutionSteps)
	fmt.Fprintf(out, "Max thinking time:     %s\n", cfg.Orch.MaxThinkingTime)
	fmt.Fprintf(out, "Context strategy:      %s (target %d tokens)\n", cfg.Context.Strategy, cfg.Context.TargetTokens)
	fmt.Fprintf(out, "CDP remote address:    %s\n", cfg.CDP.RemoteAddr)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Provider availability")
	fmt.Fprintln(out, "======================")
	printAvailability(out, "anthropic", cfg.LLM.AnthropicAPIKey != "")
	printAvailability(out, "openai", cfg.LLM.OpenAIAPIKey != "")
	printAvailability(out, "gemini (via openai-compatible adapter)", cfg.LLM.GeminiAPIKey != "")

	if !cfg.HasAnyProvider() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No provider API keys configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY.")
	}

	return nil
}

func printAvailability(out io.Writer, name string, ok bool) {
	status := "not configured"
	if ok {
		status = "configured"
	}
	fmt.Fprintf(out, "  - %s: %s\n", name, status)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
