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

	httpadapter "github.com/kirillkom/medical-query-assistant/internal/adapters/http"
	"github.com/kirillkom/medical-query-assistant/internal/adapters/web"
	"github.com/kirillkom/medical-query-assistant/internal/bootstrap"
	"github.com/kirillkom/medical-query-assistant/internal/config"
	"github.com/kirillkom/medical-query-assistant/internal/observability/metrics"
)

const serviceName = "medq-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName, Observer: httpMetrics})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()
	logger := app.Logger

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("template error: %v", err)
	}
	contract, err := httpadapter.LoadContract(ctx)
	if err != nil {
		log.Fatalf("api contract error: %v", err)
	}

	router := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		NewController: app.NewController,
		Renderer:      renderer,
		Contract:      contract,
		Metrics:       httpMetrics,
		Logger:        logger,
		ServiceName:   serviceName,
	}).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app.LogWelcome()
	go func() {
		logger.Info("api_listening", "addr", server.Addr, "contract_version", contract.Version())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
