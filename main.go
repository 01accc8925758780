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

	"chatsync/internal/chatsync"
	"chatsync/internal/config"
	slackint "chatsync/internal/integrations/slack"
	"chatsync/internal/logging"
	"chatsync/internal/middleware"
	"chatsync/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack"
)

const retryInterval = 30 * time.Second

type ServiceBundle struct {
	Store        *storage.SQLStore
	SlackClient  *slack.Client
	SlackHandler *slackint.SlackHandler
	Config       *config.Config
}

func loadConfig() *config.Config {
	for {
		slog.Info("Loading configuration...")

		cfg, err := config.Load()
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			slog.Error("Invalid configuration, retrying in 30s", "error", err)
			time.Sleep(retryInterval)
			continue
		}
		return cfg
	}
}

func openStore(cfg *config.Config) *storage.SQLStore {
	for {
		store, err := storage.Open(cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to open database connection, retrying in 30s", "error", err)
			time.Sleep(retryInterval)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.Ping(ctx)
		if err == nil {
			err = store.InitSchema(ctx)
		}
		cancel()

		if err != nil {
			slog.Error("Failed to prepare database, retrying in 30s", "error", err)
			store.Close()
			time.Sleep(retryInterval)
			continue
		}
		return store
	}
}

func initializeServices() *ServiceBundle {
	cfg := loadConfig()
	logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Initializing services...", "environment", cfg.Environment, "socket_mode", cfg.SocketMode())

	store := openStore(cfg)
	syncer := chatsync.NewSyncer(store)

	var opts []slack.Option
	if cfg.SocketMode() {
		opts = append(opts, slack.OptionAppLevelToken(cfg.SlackAppToken))
	}
	slackClient := slack.New(cfg.SlackBotToken, opts...)

	slackHandler := slackint.NewSlackHandler(slackClient, syncer, slackint.Options{
		SigningSecret:  cfg.SlackSigningSecret,
		TeamID:         cfg.SlackTeamID,
		IgnoreChannels: cfg.IgnoreChannels,
	})

	slog.Info("All services initialized successfully")

	return &ServiceBundle{
		Store:        store,
		SlackClient:  slackClient,
		SlackHandler: slackHandler,
		Config:       cfg,
	}
}

func main() {
	// Setup structured logging until configuration is available
	logging.SetupLogger("INFO", "text")

	slog.Info("Starting chatsync", slog.String("version", "1.0.0"))

	services := initializeServices()
	defer services.Store.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := mux.NewRouter()

	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	// Events API endpoint, only when requests can be verified
	if services.Config.SlackSigningSecret != "" {
		limiter := middleware.NewWebhookRateLimiter()
		go limiter.Cleanup(ctx, time.Minute)

		slackRouter := router.PathPrefix("/slack").Subrouter()
		slackRouter.Use(limiter.Middleware)
		slackRouter.HandleFunc("/events", services.SlackHandler.HandleEvents).Methods("POST")
	}

	// System routes
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, pingCancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer pingCancel()

		if err := services.Store.Ping(pingCtx); err != nil {
			logging.LoggerFromContext(r.Context()).Warn("Readiness check failed", "error", err)
			http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	server := &http.Server{
		Addr:         ":" + services.Config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if services.Config.SocketMode() {
		runner := slackint.NewSocketRunner(services.SlackClient, services.SlackHandler)
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Socket Mode stopped", "error", err)
			}
		}()
	}

	// Start server
	go func() {
		slog.Info("Server starting", slog.String("port", services.Config.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Stop Socket Mode and the limiter cleanup
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully")
}
