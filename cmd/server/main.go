package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/bahalana/floodcast/internal/adapter/http"
	"github.com/bahalana/floodcast/internal/adapter/imerg"
	kafkaadapter "github.com/bahalana/floodcast/internal/adapter/kafka"
	"github.com/bahalana/floodcast/internal/adapter/postgres"
	"github.com/bahalana/floodcast/internal/adapter/power"
	"github.com/bahalana/floodcast/internal/config"
	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/model"
	"github.com/bahalana/floodcast/internal/observability"
	"github.com/bahalana/floodcast/internal/pipeline"
	"github.com/bahalana/floodcast/internal/predict"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Satellite coverage is feature-flagged via IMERG_ENABLED / EARTHDATA_TOKEN.
	var satellite domain.SatelliteChecker
	if cfg.IMERGEnabled {
		client := imerg.NewClient(cfg.EarthdataToken, imerg.DefaultBaseURL, cfg.IMERGTimeout, metrics, logger)
		satellite = imerg.NewCachedChecker(client, cfg.IMERGCacheSize, metrics)
		metrics.SatelliteEnabled.Set(1)
		logger.Info("imerg satellite coverage enabled", "cache_size", cfg.IMERGCacheSize, "timeout", cfg.IMERGTimeout)
	} else {
		logger.Info("imerg satellite coverage disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(satellite, logger)

	loaders := []pipeline.BatchLoader{writer}
	var store *postgres.Store
	if cfg.PostgresDSN != "" {
		store, err = postgres.Open(cfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, store)
		logger.Info("postgres sink enabled")
	} else {
		logger.Info("postgres sink disabled")
	}

	p := pipeline.New(reader, transformer, pipeline.NewMultiLoader(loaders...), logger, metrics, cfg.BatchSize)

	// The prediction endpoint needs a trained artifact; the service still
	// serves risk assessments without one.
	var predictor httpadapter.Predictor
	if m, meta, err := model.Load(cfg.ModelPath); err != nil {
		logger.Warn("no usable model artifact, predictions disabled", "path", cfg.ModelPath, "error", err)
	} else {
		predictor = predict.NewService(m, meta)
		logger.Info("model loaded", "model_id", meta.ModelID, "trained_at", meta.TrainedAt, "f1", meta.F1Score)
	}

	fetcher := power.NewClient(cfg.PowerBaseURL, cfg.PowerTimeout, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, fetcher, predictor, satellite, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("postgres close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
