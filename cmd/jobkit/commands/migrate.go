package commands

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/jobkit/db/migrations"
	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/pg"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the booking and payment schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log, _ := newLogger()

			var cfg pg.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}

			pool, err := pg.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			return pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log)
		},
	}
}
