package commands

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/jobkit/modules/jobs"
	"github.com/dmitrymomot/jobkit/pkg/clientip"
	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/httpserver"
	"github.com/dmitrymomot/jobkit/pkg/ratelimiter"
	"github.com/dmitrymomot/jobkit/pkg/requestid"
)

func newServeCommand(root *rootFlags) *cobra.Command {
	var noDrain bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the jobs HTTP API",
		Long: `Serve the jobs API under /jobs and health under /healthz.

Unless --no-drain is set, the drain scheduler runs in the same process and
POST /jobs/process triggers an extra pass on demand.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, root.memory)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				httpCfg httpserver.Config
				rateCfg ratelimiter.Config
			)
			config.MustLoad(&httpCfg)
			config.MustLoad(&rateCfg)

			limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(nil), rateCfg)
			if err != nil {
				return err
			}

			opts := jobs.RouterOptions{Queue: a.client, Logger: a.log}

			g, ctx := errgroup.WithContext(ctx)
			if !noDrain {
				scheduler, err := a.newDrainScheduler()
				if err != nil {
					return err
				}
				opts.Drain = scheduler
				g.Go(scheduler.Run(ctx))
			}

			r := chi.NewRouter()
			r.Use(requestid.Middleware, clientip.Middleware, middleware.Recoverer)
			r.Get("/healthz", httpserver.HealthCheckHandler(a.log, a.checks...))
			r.Group(func(r chi.Router) {
				r.Use(ratelimiter.Middleware(limiter, clientip.Key, a.log))
				r.Mount("/jobs", jobs.Router(opts))
			})

			srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(a.log))
			g.Go(srv.RunFunc(ctx, r))
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&noDrain, "no-drain", false, "serve the API only, without the drain scheduler")
	return cmd
}
