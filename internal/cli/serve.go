package cli

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/server"
)

var (
	flagListen         string
	flagRequestTimeout time.Duration
	flagShutdownGrace  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review API for the editor",
	Long:  "Serve POST /ai/get-review and GET /healthz. Stops gracefully on SIGINT or SIGTERM.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		svc, err := buildService(cfg)
		if err != nil {
			fail(cmd, err)
			return nil
		}

		handler := server.New(svc,
			server.WithLogger(logger),
			server.WithAllowedOrigins(cfg.AllowedOrigins),
			server.WithMaxCodeBytes(cfg.MaxCodeBytes),
			server.WithRequestTimeout(flagRequestTimeout),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = server.ListenAndServe(ctx, cfg.Listen, handler, flagShutdownGrace, func(addr net.Addr) {
			logger.Infof("critic listening on %s (provider: %s, model: %s)", addr, svc.Provider(), svc.Model())
		})
		if err != nil {
			fail(cmd, err)
			return nil
		}
		logger.Infof("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default :3000, or :$PORT)")
	serveCmd.Flags().DurationVar(&flagRequestTimeout, "request-timeout", 2*time.Minute, "Upper bound on a single review, retries included (0 = none)")
	serveCmd.Flags().DurationVar(&flagShutdownGrace, "shutdown-grace", 10*time.Second, "Time allowed for in-flight requests on shutdown")
}
