package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"swapdesk/internal/app"
	"swapdesk/internal/config"
	"swapdesk/internal/observability"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.IsProduction())

			a, err := app.Build(cfg, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- a.Listen() }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			select {
			case err := <-errCh:
				_ = a.Close(shutdownTimeout)
				return err
			case s := <-sig:
				logger.Info("shutting down", "signal", s.String())
				return a.Close(shutdownTimeout)
			}
		},
	}
}
