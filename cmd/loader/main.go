package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/rmacedo/cnpjsync/internal/ingestion/archive"
	"github.com/rmacedo/cnpjsync/internal/ingestion/catalog"
	"github.com/rmacedo/cnpjsync/internal/ingestion/config"
	"github.com/rmacedo/cnpjsync/internal/ingestion/controller"
	"github.com/rmacedo/cnpjsync/internal/ingestion/db"
	"github.com/rmacedo/cnpjsync/internal/ingestion/decode"
	"github.com/rmacedo/cnpjsync/internal/ingestion/events"
	"github.com/rmacedo/cnpjsync/internal/ingestion/fetch"
	"go.uber.org/zap"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load(configPath())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		logger.Fatal("failed to create staging directory", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}
	defer repo.Close()

	var producer controller.EventProducer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			log.Fatal("failed to initialize Kafka producer", err)
		}
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	fetcher := fetch.NewFetcher(time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.RetryCount, logger)
	scanner := catalog.NewScanner(fetcher, logger)
	extractor := archive.NewExtractor(logger)
	decoder := decode.NewDecoder(cfg.ChunkSize, decode.FormatMinimal, logger)

	loader := controller.NewLoader(cfg, fetcher, scanner, extractor, decoder, repo, producer, logger)

	stats, err := loader.Run(context.Background())
	if err != nil {
		logger.Fatal("ingestion run aborted", zap.Error(err))
	}
	logger.Info("ingestion finished",
		zap.String("run_id", stats.RunID),
		zap.Int("files_ingested", stats.FilesIngested),
		zap.Int("files_failed", stats.FilesFailed),
		zap.Int("records_upserted", stats.RecordsUpserted),
	)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// configPath resolves the config file location, overridable via environment.
func configPath() string {
	if path := os.Getenv("CNPJSYNC_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

// initDatabase initializes the database connection settings.
func initDatabase(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}
