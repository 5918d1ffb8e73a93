package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/wolv-invest/platform/internal/app"
	"github.com/wolv-invest/platform/internal/auth"
	"github.com/wolv-invest/platform/internal/gate"
	"github.com/wolv-invest/platform/internal/identity"
	"github.com/wolv-invest/platform/internal/invest"
	"github.com/wolv-invest/platform/internal/observability"
	"github.com/wolv-invest/platform/internal/platform/cache"
	"github.com/wolv-invest/platform/internal/platform/db"
	"github.com/wolv-invest/platform/internal/session"
	"github.com/wolv-invest/platform/internal/shared"
	"github.com/wolv-invest/platform/internal/users"
	"github.com/wolv-invest/platform/jobs"
)

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	directory := identity.NewPGDirectory(pool, identity.PGConfig{RequireConfirmation: cfg.RequireConfirmation})
	events := identity.NewEventHub(redisClient, logger)

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

	hub := session.NewHub(session.HubConfig{
		Directory: directory,
		Logger:    logger,
		IdleTTL:   cfg.SessionTTL,
		TouchLastLogin: func(ctx context.Context, subjectID string) {
			if _, err := jobsClient.EnqueueTouchLastLogin(ctx, subjectID); err != nil {
				logger.Warn("enqueue last-login touch", slog.Any("error", err))
			}
		},
	})

	store := shared.NewStore(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	gateMiddleware := gate.Middleware{Logger: logger, OnDenied: metrics.RecordDenial}

	authHandler := auth.NewHandler(auth.HandlerConfig{
		Logger:  logger,
		Hub:     hub,
		Store:   store,
		CSRF:    csrfManager,
		Events:  events,
		Metrics: metrics,
		OnRegistered: func(ctx context.Context, email, name string) {
			if _, err := jobsClient.EnqueueWelcomeEmail(ctx, jobs.WelcomeEmailPayload{Email: email, Name: name}); err != nil {
				logger.Warn("enqueue welcome email", slog.Any("error", err))
			}
		},
	})

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, events, logger)
	usersHandler := users.NewHandler(logger, usersService, gateMiddleware)

	investHandler := invest.NewHandler(logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Store:         store,
		CSRFManager:   csrfManager,
		SessionHub:    hub,
		Gate:          gateMiddleware,
		AuthHandler:   authHandler,
		UsersHandler:  usersHandler,
		UsersService:  usersService,
		InvestHandler: investHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := hub.Run(groupCtx, events); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("stopped")
}
