package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-verify-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-verify-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-verify-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-verify-service/internal/config"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	"github.com/couchcryptid/weather-verify-service/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	geocoder := openmeteo.NewGeocodingClient(openmeteo.Settings{
		BaseURL:    cfg.GeocodingURL,
		Timeout:    cfg.UpstreamTimeout,
		RatePerSec: cfg.UpstreamRate,
	}, metrics, logger)
	archive := openmeteo.NewArchiveClient(openmeteo.Settings{
		BaseURL:    cfg.ArchiveURL,
		Timeout:    cfg.UpstreamTimeout,
		RatePerSec: cfg.UpstreamRate,
	}, metrics, logger)

	p := pipeline.New(geocoder, archive, logger, metrics, pipeline.WithHistoryDays(cfg.HistoryDays))

	opts := []httpadapter.Option{httpadapter.WithAccessToken(cfg.ReportAccessToken)}

	// Report publishing is feature-flagged via KAFKA_ENABLED.
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		opts = append(opts, httpadapter.WithPublisher(publisher))
		logger.Info("report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("report publishing disabled")
	}
	if cfg.ReportAccessToken == "" {
		logger.Warn("REPORT_ACCESS_TOKEN not set; every caller receives the full report")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()
	metrics.ServiceRunning.Set(1)

	<-ctx.Done()
	logger.Info("shutting down")
	metrics.ServiceRunning.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
