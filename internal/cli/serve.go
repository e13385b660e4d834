package cli

import (
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sheetfab/nestd/internal/config"
	"github.com/sheetfab/nestd/internal/queue"
	"github.com/sheetfab/nestd/internal/storage"
	"github.com/sheetfab/nestd/internal/worker"
)

// newServeCmd builds the queue-worker command.
func newServeCmd(level func() charmlog.Level) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the nesting worker against the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := exitLogger(level())

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if lvl, err := charmlog.ParseLevel(cfg.LogLevel); err == nil && level() != charmlog.DebugLevel {
				logger.SetLevel(lvl)
			}

			q, err := queue.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			store, err := storage.NewMinio(
				cfg.Storage.Endpoint,
				cfg.Storage.AccessKey,
				cfg.Storage.SecretKey,
				cfg.Storage.Bucket,
				cfg.Storage.UseSSL,
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := worker.New(q, store, cfg.PollInterval, logger)
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (optional; env vars with NESTD_ prefix always apply)")
	return cmd
}
