// Package queue is the job queue shared by the booking, payment and
// notification subsystems.
//
// The package is organised around four components:
//
//   - JobStore        — named FIFO lists, one per job Type (Redis or memory)
//   - Client          — the producer; assigns IDs and stamps creation time
//   - Worker          — pops jobs and hands them to a Processor, retrying failures
//   - DrainScheduler  — calls Worker.ProcessPendingJobs on a ticker
//
// # Jobs
//
// A Job carries one Payload variant: NotificationPayload, BookingPayload or
// PaymentPayload. The variant decides the job's Type and therefore its queue.
// Jobs are encoded as a JSON envelope tagged with the type.
//
// # Retries
//
// A failed attempt re-enqueues the job at the tail of its queue with
// RetryCount incremented, until RetryCount reaches MaxRetries. A job is
// therefore attempted at most MaxRetries+1 times. Errors wrapped with
// Permanent skip retries entirely. Jobs that exhaust their retries are
// logged and dropped.
//
// # Scheduling
//
// ScheduledFor holds a job back. A lane that pops a job that is not yet due
// pushes it back to the tail without touching RetryCount and sleeps for the
// poll interval.
//
// # Modes
//
// Worker.Start runs three independent lanes, one per type, each polling every
// PollInterval when idle. ProcessPendingJobs instead takes up to BatchSize
// jobs from each queue and returns. Use one mode or the other against a given
// store, not both.
//
// # Usage
//
//	store, _ := queue.NewRedisStore(rdb)
//	client, _ := queue.NewClient(store)
//	_, _ = client.EnqueueBookingJob(ctx, queue.BookingPayload{
//		BookingID: "b-1",
//		Action:    queue.BookingConfirm,
//	})
//
//	router := queue.NewRouter(
//		queue.WithNotificationHandler(notifications),
//		queue.WithBookingHandler(bookings),
//		queue.WithPaymentHandler(payments),
//	)
//	worker, _ := queue.NewWorker(store, router)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(worker.Run(ctx))
//	_ = g.Wait()
package queue
