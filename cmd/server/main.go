package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/inboxkit/inboxkit/internal/api"
	"github.com/inboxkit/inboxkit/internal/config"
	"github.com/inboxkit/inboxkit/internal/database"
	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/services"
	smtpserver "github.com/inboxkit/inboxkit/internal/smtp"
	"github.com/inboxkit/inboxkit/internal/storage"
	ws "github.com/inboxkit/inboxkit/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting inboxkit server")
	cfg.LogConfig(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub(logger)
	go hub.Run()

	dispatcher, err := mail.NewSESDispatcher(ctx, mail.DispatcherConfig{
		Region:           cfg.AWSRegion,
		AccessKeyID:      cfg.AWSAccessKeyID,
		SecretAccessKey:  cfg.AWSSecretAccessKey,
		ConfigurationSet: cfg.SESConfigurationSet,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize mail dispatcher", "error", err)
		os.Exit(1)
	}

	// The notification processor is shared between the HTTP callback
	// route and the local SMTP listener.
	inboxRepo := repository.NewInboxRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)
	attemptRepo := repository.NewWebhookAttemptRepository(db)

	notifier := services.NewWebhookNotifier(webhookRepo, attemptRepo, cfg.WebhookTimeout, logger)
	correlator := services.NewThreadCorrelator(messageRepo, threadRepo, logger)
	processor := services.NewNotificationProcessor(inboxRepo, messageRepo, threadRepo, correlator, notifier, hub, logger)

	e := api.NewRouter(&api.RouterConfig{
		DB:                 db,
		Logger:             logger,
		Hub:                hub,
		Dispatcher:         dispatcher,
		Processor:          processor,
		Notifier:           notifier,
		DefaultEmailDomain: cfg.DefaultEmailDomain,
		InboundMailHost:    cfg.InboundMailHost,
		DKIMHost:           cfg.DKIMHost,
		DailyMessageLimit:  cfg.DailyMessageLimit,
		AllowedOrigins:     splitOrigins(cfg.AllowedOrigins),
		SecureWSOrigins:    cfg.AppEnv == "production",
	})

	var archive storage.Archive
	if cfg.MailArchiveDir != "" {
		archive, err = storage.NewLocalArchive(cfg.MailArchiveDir)
		if err != nil {
			logger.Error("failed to initialize mail archive", "error", err)
			os.Exit(1)
		}
	}

	smtpCfg := smtpserver.LoadServerConfigFromEnv()
	smtpCfg.Addr = fmt.Sprintf(":%d", cfg.SMTPPort)
	smtpCfg.Domain = cfg.DefaultEmailDomain
	backend := smtpserver.NewBackend(&smtpserver.BackendConfig{
		Inboxes:  inboxRepo,
		Ingestor: processor,
		Archive:  archive,
		Logger:   logger,
	})
	smtpSrv := smtpserver.NewSecureServer(backend, smtpCfg)

	go func() {
		logger.Info("SMTP server listening", "addr", smtpSrv.Addr)
		if err := smtpSrv.ListenAndServe(); err != nil {
			logger.Error("SMTP server stopped", "error", err)
			cancel()
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("API server listening", "addr", addr)
		if err := e.Start(addr); err != nil {
			logger.Error("API server stopped", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", "error", err)
	}
	if err := smtpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("SMTP server shutdown failed", "error", err)
	}
	hub.Stop()

	logger.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
