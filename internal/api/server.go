// Package api exposes the chart host over HTTP: typed huma operations on a chi
// router, plus the PNG export, Prometheus metrics and the websocket feed.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/recorder"
	"StockAnalyzerView/internal/session"
	"StockAnalyzerView/internal/surface"
	"StockAnalyzerView/internal/validator"
)

// ChartHost is the part of session.Host the API drives.
type ChartHost interface {
	Request(ctx context.Context, req model.Request) error
	Refresh(ctx context.Context) error
	Resize(width int) error
	Snapshot() session.Snapshot
	RenderPNG(w io.Writer) error
}

// History lists recorded render cycles, newest first.
type History interface {
	Recent(limit int) ([]recorder.RenderEvent, error)
}

// Options wires the server. History, Gatherer and Stream are optional.
type Options struct {
	Host     ChartHost
	History  History
	Gatherer prometheus.Gatherer
	Stream   http.Handler
	Policy   model.RequestPolicy
	Logger   *logrus.Logger
}

// NewServer builds the HTTP handler.
func NewServer(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("component", "api")

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("StockAnalyzerView API", "1.0.0")
	api := humachi.New(router, cfg)

	h := &handlers{opts: opts, log: log}
	h.register(api)

	router.Get("/api/v1/chart/image.png", h.image)
	if opts.Gatherer != nil {
		router.Handle("/metrics", metrics.Handler(opts.Gatherer))
	}
	if opts.Stream != nil {
		router.Handle("/ws", opts.Stream)
	}
	return router
}

type handlers struct {
	opts Options
	log  *logrus.Entry
}

type chartRequestInput struct {
	Body struct {
		Symbol string `json:"symbol,omitempty" doc:"Ticker or index symbol. Defaults per mode."`
		Mode   string `json:"mode" enum:"line,candlestick,index" doc:"Chart mode"`
	}
}

type resizeInput struct {
	Body struct {
		Width int `json:"width" minimum:"1" doc:"New chart width in pixels"`
	}
}

type historyInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500"`
}

type snapshotOutput struct {
	Body session.Snapshot
}

type historyOutput struct {
	Body struct {
		Events []recorder.RenderEvent `json:"events"`
	}
}

type healthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func (h *handlers) register(api huma.API) {
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-chart", Method: http.MethodGet, Path: "/api/v1/chart", Summary: "Current chart state", Tags: []string{"Chart"}},
		func(ctx context.Context, input *struct{}) (*snapshotOutput, error) {
			return &snapshotOutput{Body: h.opts.Host.Snapshot()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "request-chart", Method: http.MethodPost, Path: "/api/v1/chart", Summary: "Start a render cycle and wait for it to settle", Tags: []string{"Chart"}},
		func(ctx context.Context, input *chartRequestInput) (*snapshotOutput, error) {
			req, err := h.opts.Policy.Resolve(input.Body.Symbol, input.Body.Mode)
			if err != nil {
				return nil, mapErr(err)
			}
			// The chart is shared; a client hanging up does not abandon it.
			if err := h.opts.Host.Request(context.WithoutCancel(ctx), req); err != nil {
				return nil, mapErr(err)
			}
			return &snapshotOutput{Body: h.opts.Host.Snapshot()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "refresh-chart", Method: http.MethodPost, Path: "/api/v1/chart/refresh", Summary: "Re-request the current chart", Tags: []string{"Chart"}},
		func(ctx context.Context, input *struct{}) (*snapshotOutput, error) {
			if err := h.opts.Host.Refresh(context.WithoutCancel(ctx)); err != nil {
				return nil, mapErr(err)
			}
			return &snapshotOutput{Body: h.opts.Host.Snapshot()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "resize-chart", Method: http.MethodPut, Path: "/api/v1/chart/resize", Summary: "Change the chart width", Tags: []string{"Chart"}},
		func(ctx context.Context, input *resizeInput) (*snapshotOutput, error) {
			if err := h.opts.Host.Resize(input.Body.Width); err != nil {
				return nil, mapErr(err)
			}
			return &snapshotOutput{Body: h.opts.Host.Snapshot()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "render-history", Method: http.MethodGet, Path: "/api/v1/history", Summary: "Recent render cycles", Tags: []string{"History"}},
		func(ctx context.Context, input *historyInput) (*historyOutput, error) {
			out := &historyOutput{}
			out.Body.Events = []recorder.RenderEvent{}
			if h.opts.History == nil {
				return out, nil
			}
			events, err := h.opts.History.Recent(input.Limit)
			if err != nil {
				return nil, mapErr(err)
			}
			out.Body.Events = events
			return out, nil
		})
}

func (h *handlers) image(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.opts.Host.RenderPNG(&buf); err != nil {
		var se huma.StatusError
		if errors.As(mapErr(err), &se) {
			http.Error(w, err.Error(), se.GetStatus())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.WithError(err).Debug("image response write failed")
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var (
		fetchErr *model.FetchError
		tsErr    *model.InvalidTimestampError
		orderErr *model.UnorderedSeriesError
		idxErr   *model.UnknownIndexError
	)
	switch {
	case errors.As(err, &fetchErr):
		return huma.Error502BadGateway(fetchErr.Message)
	case errors.As(err, &tsErr), errors.As(err, &orderErr), errors.Is(err, validator.ErrMixedVolume):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.As(err, &idxErr),
		errors.Is(err, model.ErrInvalidMode),
		errors.Is(err, session.ErrEmptySymbol),
		errors.Is(err, surface.ErrBadWidth):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, model.ErrNotReady), errors.Is(err, model.ErrStaleRequest):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, session.ErrClosed):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.Is(err, session.ErrNoRaster):
		return huma.Error501NotImplemented(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
