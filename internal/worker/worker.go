package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"nomorewaste/internal/queue"
)

// Sweeper is the expiry sweep the worker runs.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Worker struct {
	server      *asynq.Server
	scheduler   *asynq.Scheduler
	sweeper     Sweeper
	sweepCron   string
	concurrency int
}

func NewWorker(redisAddr string, concurrency int, sweepCron string, sweeper Sweeper) *Worker {
	redisOpt := queue.RedisOpt(redisAddr)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				queue.QueueNotifications: 1,
			},
		},
	)

	return &Worker{
		server:      server,
		scheduler:   asynq.NewScheduler(redisOpt, nil),
		sweeper:     sweeper,
		sweepCron:   sweepCron,
		concurrency: concurrency,
	}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeExpirySweep, w.handleExpirySweep)
	return mux
}

// Start runs the task server and the periodic scheduler until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	entryID, err := w.scheduler.Register(w.sweepCron, queue.NewExpirySweepTask(), queue.ExpirySweepOptions()...)
	if err != nil {
		return fmt.Errorf("failed to register expiry sweep schedule: %w", err)
	}

	slog.Info("Starting worker",
		"queues", []string{queue.QueueNotifications},
		"concurrency", w.concurrency,
		"sweep_cron", w.sweepCron,
		"schedule_entry", entryID)

	if err := w.server.Start(w.Mux()); err != nil {
		return err
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return err
	}

	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.scheduler.Shutdown()
	w.server.Shutdown()
	slog.Info("Worker stopped")
	return nil
}

func (w *Worker) handleExpirySweep(ctx context.Context, _ *asynq.Task) error {
	created, err := w.sweeper.Sweep(ctx)
	if err != nil {
		slog.Error("expiry sweep failed", "created", created, "error", err)
		return err
	}
	return nil
}
