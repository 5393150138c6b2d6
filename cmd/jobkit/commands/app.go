package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/email"
	"github.com/dmitrymomot/jobkit/pkg/httpserver"
	"github.com/dmitrymomot/jobkit/pkg/idempotency"
	"github.com/dmitrymomot/jobkit/pkg/jobs"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
	"github.com/dmitrymomot/jobkit/pkg/pg"
	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/redis"
)

// app is the wired job backbone shared by every processing mode.
type app struct {
	log      *slog.Logger
	queueCfg queue.Config
	store    queue.JobStore
	router   *queue.Router
	client   *queue.Client
	worker   *queue.Worker
	checks   []httpserver.Check
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newLogger() (*slog.Logger, appConfig) {
	var cfg appConfig
	config.MustLoad(&cfg)
	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.Name))
	logger.SetAsDefault(log)
	return log, cfg
}

type stores struct {
	jobs        queue.JobStore
	idempotency idempotency.Store
	bookings    booking.Repository
	payments    payment.Repository
}

func newApp(ctx context.Context, memory bool) (*app, error) {
	log, appCfg := newLogger()

	var (
		queueCfg queue.Config
		idemCfg  idempotency.Config
		emailCfg email.Config
		notifCfg notification.Config
		crmCfg   crm.Config
	)
	config.MustLoad(&queueCfg)
	config.MustLoad(&idemCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&notifCfg)
	config.MustLoad(&crmCfg)

	loc, err := time.LoadLocation(appCfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", appCfg.Timezone, err)
	}

	a := &app{log: log, queueCfg: queueCfg}

	var st stores
	if memory {
		log.WarnContext(ctx, "using in-process stores, data is lost on exit")
		st = stores{
			jobs:        queue.NewMemoryStore(),
			idempotency: idempotency.NewMemoryStore(time.Now),
			bookings:    booking.NewMemoryRepository(),
			payments:    payment.NewMemoryRepository(),
		}
	} else {
		st, err = a.connect(ctx, queueCfg, idemCfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	guard, err := idempotency.NewGuard(st.idempotency,
		idempotency.WithTTL(idemCfg.TTL),
		idempotency.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	sender, err := email.New(emailCfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if !emailCfg.PostmarkEnabled() {
		log.InfoContext(ctx, "postmark not configured, writing emails to disk", slog.String("dir", emailCfg.DevDir))
	}

	renderer, err := notification.NewRenderer(notifCfg.Brand)
	if err != nil {
		a.Close()
		return nil, err
	}

	dispatcherOpts := []notification.DispatcherOption{
		notification.WithRenderer(renderer),
		notification.WithDispatcherLogger(log),
	}
	jobOpts := []jobs.Option{
		jobs.WithLogger(log),
		jobs.WithLocation(loc),
	}

	if crmCfg.Enabled() {
		// Alerts go out by email only, so their dispatcher needs no CRM.
		alertDispatcher, err := notification.NewDispatcher(sender, dispatcherOpts...)
		if err != nil {
			a.Close()
			return nil, err
		}
		crmClient, err := crm.New(crmCfg,
			crm.WithLogger(log),
			crm.WithGuard(guard),
			crm.WithAlerter(crm.MultiAlerter{
				crm.NewLogAlerter(log),
				notification.NewAlertMailer(alertDispatcher, notifCfg.AlertEmail, log),
			}),
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		dispatcherOpts = append(dispatcherOpts, notification.WithSMSSender(notification.NewCRMSMSSender(crmClient)))
		jobOpts = append(jobOpts, jobs.WithCRM(crmClient))
	} else {
		log.InfoContext(ctx, "CRM not configured, SMS and CRM sync disabled")
	}

	dispatcher, err := notification.NewDispatcher(sender, dispatcherOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store = st.jobs
	a.router, err = newRouter(st, dispatcher, guard, jobOpts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.client, err = queue.NewClient(st.jobs,
		queue.WithClientLogger(log),
		queue.WithDefaultMaxRetries(queueCfg.DefaultMaxRetries),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.worker, err = a.newWorker()
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newRouter(st stores, n jobs.Notifier, guard *idempotency.Guard, opts []jobs.Option) (*queue.Router, error) {
	notifications, err := jobs.NewNotificationProcessor(st.bookings, n, opts...)
	if err != nil {
		return nil, err
	}
	bookings, err := jobs.NewBookingProcessor(st.bookings, st.payments, n, opts...)
	if err != nil {
		return nil, err
	}
	payments, err := jobs.NewPaymentProcessor(st.payments, st.bookings, n, guard, opts...)
	if err != nil {
		return nil, err
	}
	return queue.NewRouter(
		queue.WithNotificationHandler(notifications),
		queue.WithBookingHandler(bookings),
		queue.WithPaymentHandler(payments),
	), nil
}

// connect opens Redis for jobs and idempotency keys and Postgres for the
// booking and payment records.
func (a *app) connect(ctx context.Context, queueCfg queue.Config, idemCfg idempotency.Config) (stores, error) {
	var (
		redisCfg redis.Config
		pgCfg    pg.Config
	)
	config.MustLoad(&redisCfg)
	if err := config.Load(&pgCfg); err != nil {
		return stores{}, errors.Join(errors.New("postgres is required unless --memory is set"), err)
	}

	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, pool.Close)
	a.checks = append(a.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

	jobStore, err := queue.NewRedisStore(rdb, queue.WithKeyPrefix(queueCfg.KeyPrefix))
	if err != nil {
		return stores{}, err
	}
	idemStore, err := idempotency.NewRedisStore(rdb, idemCfg.KeyPrefix)
	if err != nil {
		return stores{}, err
	}

	return stores{
		jobs:        jobStore,
		idempotency: idemStore,
		bookings:    booking.NewPostgresRepository(pool),
		payments:    payment.NewPostgresRepository(pool),
	}, nil
}

// newWorker builds an extra worker over the same store and handlers.
func (a *app) newWorker(opts ...queue.WorkerOption) (*queue.Worker, error) {
	return queue.NewWorker(a.store, a.router,
		append(append(a.queueCfg.WorkerOptions(), queue.WithWorkerLogger(a.log)), opts...)...,
	)
}
