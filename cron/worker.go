package cron

import (
	"context"
	"fmt"
	"time"

	"wellbe/config"
	"wellbe/services/mail"
	"wellbe/services/session"
	"wellbe/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReviewPrompter is the part of the session service the sweep needs.
type ReviewPrompter interface {
	SendReviewPrompts(ctx context.Context, now time.Time) (int, error)
}

var _ ReviewPrompter = (session.SessionService)(nil)

// Worker runs queued email delivery and the periodic review prompt sweep.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	interval  string
	logger    *zap.Logger
}

// RedisOpt returns the asynq connection for the configured queue DB.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

func NewWorker(opt asynq.RedisClientOpt, mailer mail.Mailer, prompter ReviewPrompter, interval string, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval == "" {
		interval = "@hourly"
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendEmail, handleEmailTask(mailer, logger))
	mux.HandleFunc(tasks.TypeReviewPrompts, handleReviewPrompts(prompter, time.Now, logger))

	return &Worker{
		srv:       srv,
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: logger.Sugar()}),
		mux:       mux,
		interval:  interval,
		logger:    logger,
	}
}

// Start launches the task server and registers the review prompt sweep.
func (w *Worker) Start() error {
	if _, err := w.scheduler.Register(w.interval, tasks.NewReviewPromptsTask()); err != nil {
		return fmt.Errorf("cron: register review prompts %q: %w", w.interval, err)
	}
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("cron: start worker: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.srv.Shutdown()
		return fmt.Errorf("cron: start scheduler: %w", err)
	}
	w.logger.Info("background worker started", zap.String("reviewPromptInterval", w.interval))
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
	w.logger.Info("background worker stopped")
}

func handleEmailTask(mailer mail.Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		email, err := tasks.ParseEmailTask(task)
		if err != nil {
			logger.Error("invalid email payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if !mailer.Enabled() {
			logger.Warn("email dropped, mailer not configured", zap.String("to", email.To))
			return nil
		}
		if err := mailer.Send(ctx, email); err != nil {
			logger.Warn("email delivery failed", zap.String("to", email.To), zap.Error(err))
			return err
		}
		logger.Debug("email delivered", zap.String("to", email.To), zap.String("subject", email.Subject))
		return nil
	}
}

func handleReviewPrompts(prompter ReviewPrompter, now func() time.Time, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		sent, err := prompter.SendReviewPrompts(ctx, now())
		if err != nil {
			logger.Error("review prompt sweep failed", zap.Error(err))
			return err
		}
		logger.Info("review prompt sweep finished", zap.Int("sent", sent))
		return nil
	}
}
