package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/bootstrap"
	"github.com/kirillkom/bank-statement-extractor/internal/config"
	"github.com/kirillkom/bank-statement-extractor/internal/observability/logging"
	"github.com/kirillkom/bank-statement-extractor/internal/observability/metrics"
)

const serviceName = "feedback-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeFeedbackAnalysis(ctx, func(handlerCtx context.Context, reportID string) error {
		done := workerMetrics.TrackInFlight()
		defer done()

		analyzeCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		started := time.Now()
		analyzeErr := app.FeedbackUC.Analyze(analyzeCtx, reportID)
		workerMetrics.ObserveAnalysis(serviceName, analyzeErr, time.Since(started))
		return analyzeErr
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
