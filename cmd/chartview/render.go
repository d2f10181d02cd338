package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockAnalyzerView/internal/collector"
	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/session"
	"StockAnalyzerView/internal/surface"
)

func newRenderCmd() *cobra.Command {
	var (
		symbol  string
		mode    string
		out     string
		width   int
		height  int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one chart to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.Context(), symbol, mode, out, width, height, timeout)
		},
	}
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Ticker or index symbol (default from config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "candlestick", "Chart mode: line, candlestick or index")
	cmd.Flags().StringVarP(&out, "output", "o", "chart.png", "Output PNG path")
	cmd.Flags().IntVar(&width, "width", 0, "Image width (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "Image height (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Fetch timeout")
	return cmd
}

func render(ctx context.Context, symbol, modeName, out string, width, height int, timeout time.Duration) error {
	cfg, logger, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	req, err := cfg.RequestPolicy().Resolve(symbol, modeName)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = cfg.Chart.Width
	}
	if height <= 0 {
		height = cfg.Chart.Height
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m := metrics.NewNop()
	fetcher, fetchCloser, err := collector.New(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer fetchCloser.Close()

	host := session.NewHost(session.Options{
		Fetcher: fetcher,
		Factory: surface.RasterFactory,
		Width:   width,
		Height:  height,
		Metrics: m,
		Logger:  logger,
	})
	defer host.Close()

	if err := host.Request(ctx, req); err != nil {
		return fmt.Errorf("render %s: %w", req.Symbol, err)
	}
	snap := host.Snapshot()
	if snap.State == session.StateEmpty {
		return fmt.Errorf("no data for %s", snap.Request.Symbol)
	}
	if snap.DrawError != "" {
		logger.WithField("error", snap.DrawError).Warn("chart drawn partially")
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := host.RenderPNG(f); err != nil {
		f.Close()
		return fmt.Errorf("write png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"symbol":  snap.Request.Symbol,
		"mode":    snap.Request.Mode,
		"samples": snap.Samples,
		"output":  out,
	}).Info("chart rendered")
	return nil
}
