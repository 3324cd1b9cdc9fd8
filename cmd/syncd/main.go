// Package main is the entry point for the messaging sync daemon.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/api"
	"github.com/capitalize-ai/messaging-sync/internal/config"
	"github.com/capitalize-ai/messaging-sync/internal/handler"
	natsclient "github.com/capitalize-ai/messaging-sync/internal/nats"
	"github.com/capitalize-ai/messaging-sync/internal/service"
	"github.com/capitalize-ai/messaging-sync/internal/sound"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
	"github.com/capitalize-ai/messaging-sync/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if cfg.UserID == "" {
		log.Fatal("USER_ID is required")
	}
	log = log.WithSession(cfg.TenantID, cfg.UserID)
	log.Info("starting messaging sync daemon", zap.String("backend_url", cfg.BackendURL))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "messaging-sync", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Backend client
	backend, err := api.NewClient(api.Config{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to create backend client", zap.Error(err))
	}

	// Sound
	provider := sound.NopProvider()
	if cfg.SoundEnabled {
		provider = sound.BellProvider(os.Stdout, cfg.SoundRequireGesture)
	}
	emitter := sound.NewEmitter(provider, sound.Options{
		MaxRepeats: cfg.SoundMaxRepeats,
		Spacing:    cfg.SoundSpacing,
	}, log)

	// State store and live fan-out
	hub := service.NewHub(64, log)
	store := service.NewStore(cfg.UserID, hub)

	// Optional JetStream mirroring
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var (
		natsCheck handler.ConnChecker
		replayer  handler.Replayer
	)
	if cfg.NATSEnabled {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}

		publisher := natsclient.NewPublisher(streamManager, cfg.TenantID, 256, log)
		go publisher.Run(runCtx)
		store.AddPublisher(publisher)

		natsCheck = natsClient
		replayer = streamManager
	}

	// Session
	session := service.NewSession(service.SessionConfig{
		UserID:              cfg.UserID,
		TenantID:            cfg.TenantID,
		MessagesRoute:       cfg.MessagesRoute,
		InitialRoute:        cfg.InitialRoute,
		UnreadPollInterval:  cfg.UnreadPollInterval,
		ReplyBeaconInterval: cfg.ReplyBeaconInterval,
		ReplyPollInterval:   cfg.ReplyPollInterval,
	}, backend, store, emitter, log)

	if err := session.Start(runCtx); err != nil {
		log.Fatal("failed to start session", zap.Error(err))
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsCheck, session)
	sessionHandler := handler.NewSessionHandler(session, log)
	streamHandler := handler.NewStreamHandler(hub, session, replayer, handler.StreamConfig{
		TenantID: cfg.TenantID,
		UserID:   cfg.UserID,
	}, log)

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		UserID:            cfg.UserID,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, healthHandler, sessionHandler, streamHandler, log)

	// Create HTTP server; open streams end when shutdown begins
	serveCtx, stopServe := context.WithCancel(ctx)
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return serveCtx },
	}
	server.RegisterOnShutdown(stopServe)

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Clears reply presence before the pollers stop.
	session.Close(shutdownCtx)
	emitter.Wait()
	stopRun()

	log.Info("daemon stopped")
}
