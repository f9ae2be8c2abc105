package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"benchmarkbox/adapters"
	"benchmarkbox/config"
	"benchmarkbox/extractor"
	"benchmarkbox/internal/api"
	"benchmarkbox/internal/bridge"
	"benchmarkbox/internal/store"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if cfg.Server.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("Environment: %s", cfg.Server.Environment)
	logger.Infof("Store backend: %s", cfg.Store.Backend)

	backend, err := cfg.Store.OpenBackend()
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	s := store.New(backend, logger, store.WithKey(cfg.Store.Key))
	defer s.Close()

	clientConfig := cfg.Fetch.ClientConfig()
	loader := adapters.NewLoader(clientConfig, logger)
	defer loader.Close()

	ext := extractor.NewExtractor(logger)
	logger.Infof("Extraction strategies: %v", ext.Strategies())

	b := bridge.New(bridge.NewHeadlessBinding(loader, logger), ext, s, clientConfig, logger)

	server := api.NewServer(s, b, logger, api.Options{
		Environment:    cfg.Server.Environment,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		PendingMaxAge:  cfg.Store.PendingMaxAge,
	})

	if err := server.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}
}
