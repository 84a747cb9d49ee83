package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/opendata-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/opendata-etl/internal/adapter/estat"
	"github.com/couchcryptid/opendata-etl/internal/adapter/httpserver"
	"github.com/couchcryptid/opendata-etl/internal/adapter/jma"
	kafkaadapter "github.com/couchcryptid/opendata-etl/internal/adapter/kafka"
	"github.com/couchcryptid/opendata-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/opendata-etl/internal/config"
	"github.com/couchcryptid/opendata-etl/internal/observability"
	"github.com/couchcryptid/opendata-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Pipelines. The stats pipeline is feature-flagged via ESTAT_APP_ID
	// since the e-Stat API requires a registered application ID.
	var pipelines []pipeline.TablePipeline
	if cfg.EstatEnabled() {
		pipelines = append(pipelines, pipeline.NewStatsPipeline(estat.NewClient(cfg, logger), logger, metrics))
		logger.Info("stats pipeline enabled", "stats_data_id", cfg.EstatStatsDataID, "category", cfg.EstatCategoryCode)
	} else {
		logger.Info("stats pipeline disabled")
	}
	pipelines = append(pipelines, pipeline.NewForecastPipeline(jma.NewClient(cfg, logger), cfg.Areas, logger, metrics))

	// Sinks. CSV output is always on; SQLite and Kafka are
	// feature-flagged via SQLITE_PATH / KAFKA_BROKERS.
	sinks := []pipeline.Sink{csvfile.NewWriter(cfg.OutputDir, clock, logger)}

	var store *sqlite.Store
	if cfg.SQLiteEnabled() {
		store, err = sqlite.Open(cfg.SQLitePath, clock, logger)
		if err != nil {
			logger.Error("failed to open sqlite store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, store)
		logger.Info("sqlite sink enabled", "path", cfg.SQLitePath)
	}

	var producer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		producer = kafkaadapter.NewWriter(cfg, clock, logger)
		sinks = append(sinks, producer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	runner := pipeline.NewRunner(pipelines, sinks, logger, metrics, clock, cfg.FetchInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunOnce {
		runner.RunCycle(ctx)
		closeSinks(logger, store, producer)
		return
	}

	srv := httpserver.New(cfg.HTTPAddr, runner, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := runner.Run(ctx); err != nil {
			logger.Error("runner error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeSinks(logger, store, producer)

	logger.Info("shutdown complete")
}

func closeSinks(logger *slog.Logger, store *sqlite.Store, producer *kafkaadapter.Writer) {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite store close error", "error", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
}
