package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/browzer-labs/browzer-agent/internal/browsercontext"
	"github.com/browzer-labs/browzer-agent/internal/cdpsession"
	"github.com/browzer-labs/browzer-agent/internal/chatsession"
	"github.com/browzer-labs/browzer-agent/internal/config"
	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/internal/memory"
	"github.com/browzer-labs/browzer-agent/internal/observability"
	"github.com/browzer-labs/browzer-agent/internal/orchestrator"
	"github.com/browzer-labs/browzer-agent/internal/toolregistry"
)

// buildRunCmd creates the "run" command: attach to a live CDP target and
// drive one goal through the orchestrator's ExecuteTask.
func buildRunCmd() *cobra.Command {
	var (
		configPath string
		tabID      string
		targetID   string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Execute one goal against a live CDP target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoal(cmd, configPath, tabID, targetID, userID, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file (optional)")
	cmd.Flags().StringVar(&tabID, "tab-id", "default", "Logical tab ID to scope the chat session and execution context")
	cmd.Flags().StringVar(&targetID, "target-id", "", "CDP target ID to attach to (first page target if empty)")
	cmd.Flags().StringVar(&userID, "user-id", "", "User ID attributed to the goal's chat session")

	return cmd
}

func runGoal(cmd *cobra.Command, configPath, tabID, targetID, userID, goal string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasAnyProvider() {
		return fmt.Errorf("no LLM provider configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
	}

	log := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})

	providers, err := buildProviders(cfg.LLM, log)
	if err != nil {
		return err
	}

	sess := cdpsession.New()
	if err := sess.Attach(ctx, cfg.CDP.RemoteAddr, targetID); err != nil {
		return fmt.Errorf("attach to %s: %w", cfg.CDP.RemoteAddr, err)
	}

	reg := toolregistry.New()
	toolregistry.RegisterBrowserTools(reg, sess, log)

	ctxProv := browsercontext.New(sess, cfg.CDP.RemoteAddr, log)
	chatMgr := chatsession.NewManager(nil)

	strategy := memory.Strategy(cfg.Context.Strategy)
	if strategy == "" {
		strategy = memory.StrategyHierarchical
	}
	memMgr := memory.NewManager(strategy)

	orch := orchestrator.New(cfg.Orch, cfg.LLM, providers, reg, chatMgr, memMgr, log)
	orch.RegisterContextProvider(tabID, ctxProv)

	result := orch.ExecuteTask(ctx, goal, tabID, orchestrator.TaskOptions{UserID: userID})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Success:  %t\n", result.Success)
	fmt.Fprintf(out, "State:    %s\n", result.FinalState)
	if result.Summary != "" {
		fmt.Fprintf(out, "Summary:  %s\n", result.Summary)
	}
	if result.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", result.Error)
	}
	fmt.Fprintf(out, "Steps:    %d\n", len(result.Iterations))
	fmt.Fprintf(out, "Tokens:   %d\n", result.TokensUsed)
	fmt.Fprintf(out, "Cost:     $%.4f\n", result.Cost)
	fmt.Fprintf(out, "Duration: %s\n", result.Duration)

	if !result.Success {
		return fmt.Errorf("task did not complete successfully")
	}
	return nil
}

// buildProviders constructs an adapter per configured API key, matching the
// spec's "Configuration (environment variables)" provider list. Each
// adapter's literal request model is a fixed sensible default, independent
// of LLMConfig.DefaultModel/FallbackModel, which instead select *which*
// adapter handles a task (see LLMConfig's doc comment).
func buildProviders(cfg config.LLMConfig, log *observability.Logger) (*orchestrator.ProviderRegistry, error) {
	var adapters []llm.Provider

	if cfg.AnthropicAPIKey != "" {
		p, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:       cfg.AnthropicAPIKey,
			DefaultModel: "claude-sonnet-4-20250514",
			MaxRetries:   3,
		})
		if err != nil {
			return nil, fmt.Errorf("build anthropic provider: %w", err)
		}
		adapters = append(adapters, p)
	}
	if cfg.OpenAIAPIKey != "" {
		p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			DefaultModel: "gpt-4o",
			MaxRetries:   3,
		})
		if err != nil {
			return nil, fmt.Errorf("build openai provider: %w", err)
		}
		adapters = append(adapters, p)
	}
	if cfg.GeminiAPIKey != "" {
		p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:       cfg.GeminiAPIKey,
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta/openai",
			DefaultModel: "gemini-2.0-flash",
			MaxRetries:   3,
		})
		if err != nil {
			return nil, fmt.Errorf("build gemini provider: %w", err)
		}
		adapters = append(adapters, geminiProvider{p})
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no LLM provider keys configured")
	}
	return orchestrator.NewProviderRegistry(log, adapters...), nil
}

// geminiProvider renames the OpenAI-compatible adapter's identity so it
// registers under "gemini" rather than colliding with a configured "openai"
// adapter in the ProviderRegistry, which keys by Provider.Name().
type geminiProvider struct {
	*llm.OpenAIProvider
}

func (geminiProvider) Name() string { return "gemini" }
