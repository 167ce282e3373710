package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendaflow-erp/vendaflow/internal/app"
	"github.com/vendaflow-erp/vendaflow/internal/auth"
	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/docgen"
	"github.com/vendaflow-erp/vendaflow/internal/observability"
	"github.com/vendaflow-erp/vendaflow/internal/platform/db"
	"github.com/vendaflow-erp/vendaflow/internal/sales/approvals"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
	"github.com/vendaflow-erp/vendaflow/internal/sales/reminders"
	"github.com/vendaflow-erp/vendaflow/internal/sales/serviceorders"
	"github.com/vendaflow-erp/vendaflow/internal/shared"
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "vendaflow_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	supervisorPolicy := authz.Policy{
		RequiredRole:   cfg.SupervisorRole,
		RequiredUserID: cfg.SupervisorUserID,
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	proposalRepo := proposals.NewRepository(pool)
	proposalService := proposals.NewService(proposalRepo, supervisorPolicy)
	proposalHandler := proposals.NewHandler(logger, proposalService)

	approvalRepo := approvals.NewRepository(pool)
	approvalService := approvals.NewService(approvalRepo, proposalService, cfg.DiscountThreshold, supervisorPolicy)
	approvalHandler := approvals.NewHandler(logger, approvalService)

	orderRepo := serviceorders.NewRepository(pool)
	orderService := serviceorders.NewService(orderRepo, proposalRepo)
	orderHandler := serviceorders.NewHandler(logger, orderService)

	reminderRepo := reminders.NewRepository(pool)
	reminderService := reminders.NewService(reminderRepo, cfg.ReminderWindow)
	reminderHandler := reminders.NewHandler(logger, reminderService)

	docgenService, err := docgen.NewService(approvalService)
	if err != nil {
		logger.Error("init document service", slog.Any("error", err))
		os.Exit(1)
	}
	docgenHandler := docgen.NewHandler(logger, docgenService, proposalService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		Metrics:              metrics,
		Authz:                authz.Middleware{Logger: logger},
		AuthHandler:          authHandler,
		ProposalsHandler:     proposalHandler,
		ApprovalsHandler:     approvalHandler,
		ServiceOrdersHandler: orderHandler,
		RemindersHandler:     reminderHandler,
		DocgenHandler:        docgenHandler,
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
