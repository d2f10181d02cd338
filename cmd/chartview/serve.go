package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"StockAnalyzerView/internal/api"
	"StockAnalyzerView/internal/collector"
	"StockAnalyzerView/internal/gateway"
	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/recorder"
	"StockAnalyzerView/internal/scheduler"
	"StockAnalyzerView/internal/session"
	"StockAnalyzerView/internal/surface"
)

func newServeCmd() *cobra.Command {
	var initialMode string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart API, websocket feed and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(initialMode)
		},
	}
	cmd.Flags().StringVar(&initialMode, "initial-mode", "index", "Chart shown on start: index, line, candlestick or none")
	return cmd
}

func serve(initialMode string) error {
	cfg, logger, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer logCloser.Close()
	logger.Info("chartview starting...")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher, fetchCloser, err := collector.New(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer fetchCloser.Close()
	logger.WithField("source", fetcher.Name()).Info("data source ready")

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	host := session.NewHost(session.Options{
		Fetcher: fetcher,
		Factory: surface.RasterFactory,
		Width:   cfg.Chart.Width,
		Height:  cfg.Chart.Height,
		Metrics: m,
		Logger:  logger,
	})
	defer host.Close()

	hub := gateway.NewHub(host, cfg.RequestPolicy(), m, logger)
	defer hub.Close()
	host.OnChange(recorder.Observer(rec, logger))
	host.OnChange(hub.Publish)

	if cfg.Refresh.Cron != "" {
		sched := scheduler.NewScheduler(ctx, host, logger)
		if err := sched.Register(cfg.Refresh.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewServer(api.Options{
			Host:     host,
			History:  rec,
			Gatherer: reg,
			Stream:   hub,
			Policy:   cfg.RequestPolicy(),
			Logger:   logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server failed")
			cancel()
		}
	}()

	if initialMode != "none" {
		req, err := cfg.RequestPolicy().Resolve("", initialMode)
		if err != nil {
			return err
		}
		go func() {
			if err := host.Request(ctx, req); err != nil && !errors.Is(err, model.ErrStaleRequest) {
				logger.WithError(err).Warn("initial chart request failed")
			}
		}()
	}

	logger.Info("chartview is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	cancel()
	logger.Info("chartview stopped")
	return nil
}
