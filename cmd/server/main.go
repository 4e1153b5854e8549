package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/eye-triage-server/internal/api"
	"github.com/eye-triage-server/internal/config"
	"github.com/eye-triage-server/internal/notify"
	"github.com/eye-triage-server/internal/service"
	"github.com/eye-triage-server/internal/storage"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg)

	engine, err := service.NewTriageEngine(logger, cfg.Matrix.Path)
	if err != nil {
		// A triage server without a valid symptom matrix must not start.
		logger.WithError(err).Fatal("Failed to construct triage engine")
	}
	logger.WithFields(logrus.Fields{
		"matrix_path":     cfg.Matrix.Path,
		"symptoms_loaded": len(engine.Matrix().Symptoms),
	}).Info("Triage engine ready")

	var store storage.Store
	if cfg.Storage.Enabled {
		sqliteStore, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open report store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	var notifier api.Notifier
	if cfg.Notifier.Enabled {
		notifier = notify.NewHandoffNotifier(logger, cfg.Notifier.WebhookURL, cfg.Notifier.Timeout)
	}

	server := api.NewServer(cfg, logger, engine, store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting triage server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
