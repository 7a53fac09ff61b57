package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Env      string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "gemini",
		Env:      "GEMINI_API_KEY or GOOGLE_API_KEY",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
			"gemini-2.5-flash-lite",
		},
	},
	{
		Provider: "openai",
		Env:      "OPENAI_API_KEY",
		Models: []string{
			"gpt-4.1-mini",
			"gpt-4.1",
			"gpt-4o",
			"o3-mini",
		},
	},
	{
		Provider: "anthropic",
		Env:      "ANTHROPIC_API_KEY",
		Models: []string{
			"claude-sonnet-4-6",
			"claude-opus-4-6",
			"claude-haiku-4-5",
		},
	},
	{
		Provider: "ollama",
		Env:      "none (OLLAMA_HOST optional)",
		Models: []string{
			"qwen2.5-coder",
			"llama3.1",
			"codellama",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s (credentials: %s):\n", info.Provider, info.Env)
			def := providers.DefaultModel(info.Provider)
			for _, m := range info.Models {
				marker := ""
				if m == def {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  - %s%s\n", m, marker)
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials with a single request",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		model := resolveModel(cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s (%s)...\n", cfg.Provider, model)

		gen, err := newGenerator(cfg.Provider, model)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = gen.Generate(ctx, providers.Request{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", cfg.Provider)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
}
