package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"churnpredict/config"
	chttp "churnpredict/http"
	"churnpredict/logging"
	"churnpredict/ml"
	"churnpredict/predict"
)

func main() {
	// Look for config in root even if run from a subdirectory.
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join("..", "config.yaml")
	}

	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// 3. Load the model once. A missing or broken artifact keeps the page up
	// with an error banner instead of stopping the process.
	model, _, err := ml.NewLoader(cfg.Model.FileName, logger, cfg.Model.SearchDirs...).Load()
	modelErrors := ml.UserMessage(err)

	service, err := predict.NewService(model,
		predict.WithCacheSize(cfg.Model.CacheSize),
		predict.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("failed to create prediction service", zap.Error(err))
	}

	// 4. Start HTTP server
	server := chttp.NewServer(chttp.ServerConfig{
		Port:         cfg.Http.Port,
		Timeout:      cfg.Http.Timeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, chttp.NewHandlers(service, modelErrors, logger), logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
