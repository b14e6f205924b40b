package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"don-provisioner/internal/config"
	"don-provisioner/internal/events"
	"don-provisioner/internal/jobspec"
	"don-provisioner/internal/provisioner"
	"don-provisioner/internal/state"
)

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	var cfgZap zap.Config
	if logLevel == "debug" {
		cfgZap = zap.NewDevelopmentConfig()
	} else {
		cfgZap = zap.NewProductionConfig()
	}
	if logLevel != "" {
		if err := cfgZap.Level.UnmarshalText([]byte(logLevel)); err != nil {
			log.Printf("Invalid LOG_LEVEL: %v, defaulting to %v", logLevel, cfgZap.Level)
		}
	}
	logger, err := cfgZap.Build()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobStore, err := state.NewDynamoDBRegistry(cfg.AWS.Region, cfg.AWS.DynamoDBTable)
	if err != nil {
		logger.Fatal("Failed to create job store", zap.Error(err))
	}

	manager := provisioner.NewManager(cfg, jobStore, jobspec.NewRegistry(nil), logger)

	// Restore previously provisioned streams after startup
	if err := manager.RestoreJobs(ctx); err != nil {
		logger.Error("Failed to restore jobs", zap.Error(err))
	}

	eventConsumer, err := events.NewSQSConsumer(cfg, manager, logger)
	if err != nil {
		logger.Fatal("Failed to create event consumer", zap.Error(err))
	}

	logger.Info("Starting DON stream provisioner",
		zap.Uint32("don_id", cfg.Don.ID),
		zap.String("don_name", cfg.Don.Name),
		zap.String("queue_url", cfg.AWS.SQSQueueURL))

	go func() {
		if err := eventConsumer.Start(ctx); err != nil {
			logger.Error("Event consumer error", zap.Error(err))
			cancel()
		}
	}()

	go func() {
		manager.StartSyncMonitor(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutdown complete")
}
