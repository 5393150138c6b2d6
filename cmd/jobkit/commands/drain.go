package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func newDrainCommand(root *rootFlags) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Process pending jobs in periodic batches",
		Long: `Drain every queue on a fixed interval (QUEUE_DRAIN_INTERVAL), taking at most
QUEUE_DRAIN_BATCH_SIZE jobs per queue per pass.

With --once a single pass runs and its report is printed as JSON, which
suits an external cron.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, root.memory)
			if err != nil {
				return err
			}
			defer a.Close()

			if once {
				report, err := a.worker.ProcessPendingJobs(ctx)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
				return err
			}

			scheduler, err := a.newDrainScheduler()
			if err != nil {
				return err
			}
			return scheduler.Run(ctx)()
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single drain pass and exit")
	return cmd
}

func (a *app) newDrainScheduler() (*queue.DrainScheduler, error) {
	return queue.NewDrainScheduler(a.worker,
		queue.WithDrainInterval(a.queueCfg.DrainInterval),
		queue.WithDrainLogger(a.log),
	)
}
