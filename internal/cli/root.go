package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/completion"
	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/logging"
	"github.com/dshills/critic/internal/providers"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Global flags
var (
	flagEnvFile  string
	flagVerbose  bool
	flagProvider string
	flagModel    string
)

var logger = logging.Default()

var rootCmd = &cobra.Command{
	Use:   "critic",
	Short: "LLM code review for the browser editor",
	Long:  "Critic reviews submitted source code with an LLM provider, either as the editor's HTTP backend (serve) or from the terminal (review).",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(flagVerbose)
		return config.LoadEnvFile(flagEnvFile)
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	return run(nil)
}

func run(args []string) int {
	exitCode = ExitSuccess
	if args != nil {
		rootCmd.SetArgs(args)
	}
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// fail reports err on stderr and records the matching exit code.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, completion.ErrInvalidInput):
		return ExitUsageError
	case providers.IsCredentialError(err), providers.IsAuthError(err):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print critic version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "critic version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", ".env", "Load environment variables from this file if it exists")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flagProvider, "provider", "", "LLM provider (gemini, openai, anthropic, ollama)")
	pf.StringVar(&flagModel, "model", "", "Model name (default: the provider's default model)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}
