package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application Layer
	appService "duesreminder/internal/application/service"
	"duesreminder/internal/domain/repository"

	// Infrastructure Layer
	"duesreminder/internal/infrastructure/database/jsonfile"
	"duesreminder/internal/infrastructure/database/memory"
	"duesreminder/internal/infrastructure/database/sqlite"
	lineClient "duesreminder/internal/infrastructure/line"
	"duesreminder/internal/infrastructure/scheduler"
	"duesreminder/internal/infrastructure/telegram"

	// Interfaces Layer
	"duesreminder/internal/interfaces/api/handler"
	"duesreminder/internal/interfaces/api/router"

	// Packages
	"duesreminder/internal/pkg/clock"
	"duesreminder/internal/pkg/config"
	appLogger "duesreminder/internal/pkg/logger"
	"duesreminder/internal/pkg/telemetry"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func newStore(cfg *config.Config, appLog appLogger.Logger) (repository.MembershipStore, error) {
	switch cfg.StoreDriver {
	case config.StoreJSON:
		appLog.Info(fmt.Sprintf("Using JSON snapshot store at %s", cfg.StorePath))
		return jsonfile.NewStore(cfg.StorePath), nil
	case config.StoreMemory:
		appLog.Warn("Using in-memory store: memberships are lost on restart")
		return memory.NewStore(), nil
	default:
		db, err := sqlite.NewDB(cfg.StorePath, cfg.LogLevel == "debug")
		if err != nil {
			return nil, err
		}
		appLog.Info(fmt.Sprintf("Using SQLite store at %s", cfg.StorePath))
		return sqlite.NewMembershipStore(db), nil
	}
}

func gracefulShutdown(
	ctx context.Context,
	apiServer *http.Server,
	schedulerService appService.SchedulerService,
	store repository.MembershipStore,
	shutdownTracing func(context.Context) error,
	appLog appLogger.Logger,
	done chan bool,
) {
	// Listen for the interrupt signal.
	<-ctx.Done()

	appLog.Info("Shutting down gracefully, press Ctrl+C again to force")

	// Stop the scheduler first so no action fires against a closed store
	appLog.Info("Stopping scheduler...")
	schedulerService.Stop()

	appLog.Info("Closing membership store...")
	if err := store.Close(); err != nil {
		appLog.Error("Error closing membership store", err)
	}

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLog.Error("Failed to flush traces", err)
	}

	appLog.Info("Server exiting")
	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// --- Initialization ---
	appLog, err := appLogger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync(appLog)
	appLog.Info("Logger initialized.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "duesreminder", cfg.OTLPEndpoint)
	if err != nil {
		appLog.Error("Failed to set up tracing", err)
		os.Exit(1)
	}
	instruments, err := telemetry.NewInstruments()
	if err != nil {
		appLog.Error("Failed to register metrics", err)
		os.Exit(1)
	}

	// --- Infrastructure ---
	store, err := newStore(cfg, appLog)
	if err != nil {
		appLog.Error("Failed to open membership store", err)
		os.Exit(1)
	}

	tg, err := telegram.NewClient(cfg.TelegramToken, cfg.NotifyRatePerSec, appLog)
	if err != nil {
		appLog.Error("Failed to create Telegram client", err)
		os.Exit(1)
	}
	cronScheduler := scheduler.NewScheduler(cfg.Location, appLog)

	admin := appService.NewAdminNotifier(cfg.AdminID, tg, appLog)
	if cfg.LineMirrorEnabled() {
		line, err := lineClient.NewClient(cfg.LineChannelSecret, cfg.LineChannelToken, appLog)
		if err != nil {
			appLog.Error("LINE mirror disabled", err)
		} else {
			admin.WithMirror(line, cfg.LineAdminUserID)
		}
	}

	// --- Application Services ---
	messages := appService.Messages{
		Community:  cfg.CommunityName,
		Fee:        cfg.FeeAmount,
		PeriodDays: cfg.BillingPeriodDays,
	}
	lock := &appService.StateLock{}
	lifecycleSvc := appService.NewLifecycleService(store, tg, admin, messages, instruments, appLog)
	schedulerSvc := appService.NewSchedulerService(cronScheduler, store, lifecycleSvc, lock, cfg.Location, appLog)
	membershipSvc := appService.NewMembershipService(store, schedulerSvc, tg, lock, clock.NewSystemClock(cfg.Location), appService.MembershipConfig{
		PeriodDays: cfg.BillingPeriodDays,
		Location:   cfg.Location,
		Messages:   messages,
	}, appLog)
	appLog.Info("Application services initialized.")

	// --- Initialize Schedules ---
	if err := schedulerSvc.InitializeSchedules(ctx); err != nil {
		// Log the error but continue starting the server
		appLog.Error("Failed to initialize some schedules on startup", err)
	}

	// --- API Handlers ---
	commands := handler.NewCommandHandler(cfg.AdminID, membershipSvc, messages, appLog)
	tgHandler := handler.NewTelegramHandler(commands, tg, cfg.WebhookSecret, appLog)

	echoRouter := router.NewRouter(&router.Config{
		TelegramHandler: tgHandler,
		HealthHandler:   handler.NewHealthHandler(store, appLog),
		Logger:          appLog,
	})

	// --- Update delivery ---
	if cfg.WebhookURL != "" {
		if err := tg.SetWebhook(cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			appLog.Error("Failed to register webhook", err)
			os.Exit(1)
		}
	} else {
		go func() {
			if err := tg.Poll(ctx, tgHandler.HandleUpdate); err != nil {
				appLog.Error("Long polling stopped", err)
			}
		}()
	}

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(ctx, apiServer, schedulerSvc, store, shutdownTracing, appLog, done)

	appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server ListenAndServe error", err)
		os.Exit(1)
	}

	// Wait for graceful shutdown signal
	<-done
	appLog.Info("Graceful shutdown complete.")
}
