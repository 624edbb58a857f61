package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/rumo-app/rumo/internal/app"
	"github.com/rumo-app/rumo/internal/jobs"
	"github.com/rumo-app/rumo/internal/mailer"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	sender := mailer.NewSMTPSender(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort), cfg.SMTPFrom, cfg.AppBaseURL, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Metrics:   jobs.NewMetrics(nil),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeResetEmail, Handler: sender.HandleResetEmailTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
