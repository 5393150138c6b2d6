// Package pg wraps pgx/v5 connection pooling and goose migrations for the
// booking and payment repositories.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, slog.Default()); err != nil {
//		return err
//	}
//
// Healthcheck returns a probe for the admin health endpoint. IsNotFoundError,
// IsDuplicateKeyError and IsForeignKeyViolationError classify pgx errors so
// repositories can map them to domain errors.
package pg
