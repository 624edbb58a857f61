package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rumo-app/rumo/internal/app"
	"github.com/rumo-app/rumo/internal/auth"
	"github.com/rumo-app/rumo/internal/candidates"
	"github.com/rumo-app/rumo/internal/jobs"
	"github.com/rumo-app/rumo/internal/mailer"
	"github.com/rumo-app/rumo/internal/migrations"
	"github.com/rumo-app/rumo/internal/observability"
	"github.com/rumo-app/rumo/internal/quiz"
	"github.com/rumo-app/rumo/internal/shared"
	"github.com/rumo-app/rumo/internal/view"
)

// authHasher adapts the auth package's password helpers to the
// candidates.PasswordHasher interface.
type authHasher struct{}

func (authHasher) HashPassword(plaintext string) (string, error) {
	return auth.HashPassword(plaintext)
}

func (authHasher) CheckStrength(plaintext string) error {
	return auth.CheckPasswordStrength(plaintext)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := migrations.Run(ctx, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "rumo_session", cfg.SessionSecret, cfg.SessionLifetime, cfg.SessionRememberLifetime, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	securityLog := shared.NewSecurityLog(dbpool, logger)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	resetMailer := mailer.NewEnqueuer(jobsClient, logger)

	lockoutPolicy := auth.LockoutPolicy{Threshold: cfg.LockoutThreshold, Duration: cfg.LockoutDuration}
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, lockoutPolicy, securityLog, resetMailer, cfg.ResetTokenTTL)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)
	gate := auth.NewGate(logger, sessionManager, csrfManager, securityLog, auth.DefaultPublicPaths())

	candidatesRepo := candidates.NewRepository(dbpool)
	candidatesService := candidates.NewService(candidatesRepo, authHasher{})
	candidatesHandler := candidates.NewHandler(logger, candidatesService, templates, csrfManager)

	quizRepo := quiz.NewRepository(dbpool)
	quizCache := quiz.NewCache(redisClient, 10*time.Minute)
	quizService := quiz.NewService(quizRepo, quizCache)
	quizHandler := quiz.NewHandler(logger, quizService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Templates:         templates,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Gate:              gate,
		AuthHandler:       authHandler,
		CandidatesHandler: candidatesHandler,
		QuizHandler:       quizHandler,
		Pool:              dbpool,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
