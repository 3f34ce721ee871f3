package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Komal-TGT/Storage-service/pkg/backup"
	"github.com/Komal-TGT/Storage-service/pkg/job"
)

// ErrQueueUnavailable is returned by backup run --enqueue without DATABASE_URL.
var ErrQueueUnavailable = errors.New("cli: job queue requires DATABASE_URL")

// NewBackupCommand creates the backup command group.
func NewBackupCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup reconciliation",
	}
	cmd.AddCommand(newBackupRunCommand(root))
	return cmd
}

func newBackupRunCommand(root *RootOptions) *cobra.Command {
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one backup cycle and print its report",
		Long: `Copy every receipt still tagged backup=needed into the backup container
and print the cycle report as JSON.

With --enqueue the cycle is handed to the job queue instead, so a running
server executes it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := root.build()
			if err != nil {
				return err
			}
			return runBackup(cmd.Context(), rt, cmd.OutOrStdout(), enqueue)
		},
	}

	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "enqueue the cycle on the job queue instead of running it here")
	return cmd
}

func runBackup(ctx context.Context, rt *Runtime, out io.Writer, enqueue bool) (err error) {
	defer func() {
		err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}()

	if err := rt.Connect(ctx); err != nil {
		return err
	}

	rec := rt.Reconciler()

	if enqueue {
		if rt.Pool == nil {
			return ErrQueueUnavailable
		}
		m, err := job.NewManager(rt.Pool,
			job.WithScheduledTask(backup.NewTask(rec, rt.Config.Backup.Schedule)),
			job.WithLogger(rt.Logger),
		)
		if err != nil {
			return err
		}
		if err := m.Trigger(ctx, backup.TaskName); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "enqueued %s\n", backup.TaskName)
		return err
	}

	if _, err := rt.Account.Backup().Ensure(ctx); err != nil {
		return err
	}

	report, err := rec.RunOnce(ctx)
	if werr := writeJSON(out, report); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}
