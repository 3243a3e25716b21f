package jobs

import (
	"fmt"

	"github.com/hibiken/asynq"

	"slotbook/internal/shared/config"
	"slotbook/pkg/logger"
)

// Worker owns the asynq server that executes tasks and the scheduler that
// enqueues the periodic sweeps.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	handlers  *Handlers
	cfg       config.JobsConfig
	log       *logger.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, cfg config.JobsConfig, handlers *Handlers, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.GetDefault()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
	})

	return &Worker{
		server:    srv,
		scheduler: asynq.NewScheduler(redisOpt, nil),
		handlers:  handlers,
		cfg:       cfg,
		log:       log,
	}
}

// Start registers the schedules and starts both the scheduler and the server.
// It does not block.
func (w *Worker) Start() error {
	if err := RegisterSchedules(w.scheduler, w.cfg); err != nil {
		return err
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start job scheduler: %w", err)
	}
	if err := w.server.Start(w.handlers.Mux()); err != nil {
		w.scheduler.Shutdown()
		return fmt.Errorf("failed to start job server: %w", err)
	}
	w.log.Info("Job worker started",
		"reminder_cron", w.cfg.ReminderCron,
		"reconcile_cron", w.cfg.ReconcileCron,
	)
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// Registrar is the part of asynq.Scheduler used to install schedules.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterSchedules installs the sweeps whose cron spec is non-empty.
func RegisterSchedules(r Registrar, cfg config.JobsConfig) error {
	if cfg.ReminderCron != "" {
		task, err := NewReminderSweepTask()
		if err != nil {
			return err
		}
		if _, err := r.Register(cfg.ReminderCron, task); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", TypeReminderSweep, err)
		}
	}
	if cfg.ReconcileCron != "" {
		task, err := NewReconcileTask("")
		if err != nil {
			return err
		}
		if _, err := r.Register(cfg.ReconcileCron, task); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", TypeReconcileSweep, err)
		}
	}
	return nil
}
