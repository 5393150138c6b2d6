package commands

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/jobkit/pkg/httpserver"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func newWorkerCommand(root *rootFlags) *cobra.Command {
	var (
		healthAddr string
		queues     []string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run long-lived queue lanes",
		Long: `Start one polling lane per queue and process jobs until interrupted.

On shutdown in-flight jobs finish before the process exits. The drain
scheduler is never started in this mode.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, root.memory)
			if err != nil {
				return err
			}
			defer a.Close()

			worker := a.worker
			if len(queues) > 0 {
				types := make([]queue.Type, 0, len(queues))
				for _, q := range queues {
					t := queue.Type(q)
					if !t.Valid() {
						return fmt.Errorf("%w: %s", queue.ErrUnknownJobType, q)
					}
					types = append(types, t)
				}
				worker, err = a.newWorker(queue.WithQueues(types...))
				if err != nil {
					return err
				}
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(worker.Run(ctx))
			if healthAddr != "" {
				r := chi.NewRouter()
				r.Get("/healthz", httpserver.HealthCheckHandler(a.log, a.checks...))
				srv := httpserver.New(httpserver.WithAddr(healthAddr), httpserver.WithLogger(a.log))
				g.Go(srv.RunFunc(ctx, r))
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&healthAddr, "health-addr", "", "serve /healthz on this address (disabled when empty)")
	cmd.Flags().StringSliceVar(&queues, "queues", nil, "queues to consume (default: all)")
	return cmd
}
