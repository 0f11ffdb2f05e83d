package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/medical-query-assistant/internal/config"
	"github.com/kirillkom/medical-query-assistant/internal/core/usecase"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/medical-query-assistant/internal/observability/logging"
	"github.com/kirillkom/medical-query-assistant/internal/observability/metrics"
)

const serviceName = "medq-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.NATSURL == "" {
		log.Fatalf("NATS_URL is required for the query event worker")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	stream, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.EventStreamConfig(), logger),
		Logger:             logger,
	})
	if err != nil {
		log.Fatalf("event stream error: %v", err)
	}
	defer stream.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	audit := usecase.NewQueryAudit(serviceName, logger, workerMetrics)

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_addr", metricsServer.Addr)
	if err := audit.Run(ctx, stream); err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
	logger.Info("worker_stopped", "totals", audit.Totals())
}
