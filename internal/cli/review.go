package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/completion"
	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/output"
	"github.com/dshills/critic/internal/review"
)

// Review flags
var (
	flagLanguage string
	flagFormat   string
	flagOut      string
	flagNoRedact bool
	flagNoCache  bool
	flagTimeout  time.Duration
	flagRetries  int
)

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagListen != "" {
		m["listen"] = flagListen
	}
	if flagRetries >= 0 {
		m["retry.attempts"] = strconv.Itoa(flagRetries)
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	return m
}

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Review a source file, or stdin when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		var (
			code     []byte
			filename string
		)
		if len(args) == 1 && args[0] != "-" {
			filename = args[0]
			code, err = os.ReadFile(filename)
		} else {
			code, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			fail(cmd, fmt.Errorf("reading input: %w", err))
			return nil
		}
		if len(code) > cfg.MaxCodeBytes {
			fail(cmd, fmt.Errorf("%w: input is %d bytes, limit is %d", completion.ErrInvalidInput, len(code), cfg.MaxCodeBytes))
			return nil
		}

		if !cfg.Privacy.RedactSecrets {
			logger.Warnf("secret redaction is disabled")
		}

		svc, err := buildService(cfg)
		if err != nil {
			fail(cmd, err)
			return nil
		}

		ctx := cmd.Context()
		if flagTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, flagTimeout)
			defer cancel()
		}

		res, err := svc.Review(ctx, review.Submission{
			Code:     string(code),
			Language: flagLanguage,
			Filename: filename,
		})
		if err != nil {
			fail(cmd, err)
			return nil
		}

		if err := output.WriteResultTo(cmd.OutOrStdout(), res, cfg.Format, flagOut); err != nil {
			fail(cmd, fmt.Errorf("writing output: %w", err))
			return nil
		}
		return nil
	},
}

func init() {
	f := reviewCmd.Flags()
	f.StringVarP(&flagLanguage, "language", "l", "", "Editor language id (javascript, python, java, cpp, ...); detected when empty")
	f.StringVarP(&flagFormat, "format", "f", "", "Output format (text, markdown, json, html)")
	f.StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVar(&flagNoCache, "no-cache", false, "Bypass the review cache")
	f.DurationVar(&flagTimeout, "timeout", 0, "Overall timeout, retries included (0 = none)")
	f.IntVar(&flagRetries, "retries", -1, "Retries after the first attempt (default from config)")
}
