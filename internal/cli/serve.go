package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Komal-TGT/Storage-service/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway and the backup scheduler",
		Long: `Ensure the primary and backup containers and the permanent read policy,
then serve the receipt API until SIGINT or SIGTERM.

Backup cycles run as a River periodic job when DATABASE_URL is set and on
the in-process cron scheduler otherwise.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.build()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), rt)
		},
	}
}

func runServe(ctx context.Context, rt *Runtime) (err error) {
	cfg := rt.Config

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err = errors.Join(err, rt.Close(closeCtx))
	}()

	if err := rt.Connect(ctx); err != nil {
		return err
	}
	if err := rt.Bootstrap(ctx); err != nil {
		return err
	}

	worker, jobs, err := rt.BackupWorker(ctx, rt.Reconciler())
	if err != nil {
		return err
	}

	handler, err := rt.Handler(jobs)
	if err != nil {
		return err
	}

	opts := []web.RunOption{
		web.Logger(rt.Logger),
		web.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	}
	if worker != nil {
		opts = append(opts,
			web.StartupHook(worker.Start),
			web.ShutdownHook(worker.Stop),
		)
	}

	rt.Logger.InfoContext(ctx, "receipt gateway starting",
		slog.String("address", cfg.Addr()),
		slog.String("container", rt.Account.Primary().Name()),
		slog.String("backup_container", rt.Account.Backup().Name()),
		slog.Bool("api_key_gate", len(cfg.HTTP.APIKeys) > 0),
	)
	return web.Run(ctx, cfg.Addr(), handler, opts...)
}
