package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"StockAnalyzerView/internal/collector"
	"StockAnalyzerView/internal/layout"
	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/surface"
	"StockAnalyzerView/internal/validator"
)

var (
	ErrClosed      = errors.New("chart host closed")
	ErrEmptySymbol = errors.New("symbol is required")
	ErrNoRaster    = errors.New("surface cannot render images")
)

// Options configures a Host.
type Options struct {
	Fetcher collector.Fetcher
	Factory surface.Factory
	Width   int
	Height  int
	Metrics *metrics.Metrics
	Logger  *logrus.Logger
}

// Host is the per-view state machine. Every Request starts a new render cycle
// and supersedes the previous one: results of older cycles are discarded.
type Host struct {
	fetcher collector.Fetcher
	factory surface.Factory
	height  int
	metrics *metrics.Metrics
	log     *logrus.Entry

	mu        sync.Mutex
	width     int
	gen       uint64
	state     State
	err       error
	req       model.Request
	current   *Session
	cancel    context.CancelFunc
	updatedAt time.Time
	closed    bool

	listeners map[int]func(width int) error
	nextID    int

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
}

// NewHost creates a Host in the Empty state.
func NewHost(opts Options) *Host {
	if opts.Factory == nil {
		opts.Factory = surface.MemoryFactory
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Host{
		fetcher:   opts.Fetcher,
		factory:   opts.Factory,
		width:     opts.Width,
		height:    opts.Height,
		metrics:   opts.Metrics,
		log:       logger.WithField("component", "chart_host"),
		listeners: make(map[int]func(int) error),
		observers: make(map[int]func(Snapshot)),
		updatedAt: time.Now(),
	}
}

// Request starts a render cycle for req and blocks until it settles. It
// returns model.ErrStaleRequest when a newer Request superseded it while it
// was fetching, ctx.Err() when ctx ended mid-fetch (the host is left Empty),
// the fetch or validation error when the cycle ended in the Error state, and
// nil otherwise. Drawing failures do not fail the request;
// see Session.DrawErr.
func (h *Host) Request(ctx context.Context, req model.Request) error {
	req = req.Normalize()
	if req.Symbol == "" {
		return ErrEmptySymbol
	}
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return err
	}
	req.Mode = mode

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.gen++
	gen := h.gen
	h.teardownLocked()
	fetchCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.req = req
	h.setStateLocked(StateLoading, nil)
	h.mu.Unlock()
	h.notify()

	h.metrics.RequestsTotal.WithLabelValues(string(req.Mode)).Inc()
	log := h.log.WithFields(logrus.Fields{"symbol": req.Symbol, "mode": req.Mode, "generation": gen})
	log.Debug("render cycle started")

	primary, breadth, fetchErr := h.fetch(fetchCtx, req)

	h.mu.Lock()
	if gen != h.gen || h.closed {
		h.mu.Unlock()
		cancel()
		h.metrics.StaleDiscards.Inc()
		log.Debug("discarding superseded result")
		return model.ErrStaleRequest
	}
	h.cancel = nil
	cancel()

	if fetchErr != nil && ctx.Err() != nil {
		// The caller gave up; that is not a DataSource failure.
		log.WithError(ctx.Err()).Info("render cycle abandoned by caller")
		h.setStateLocked(StateEmpty, nil)
		h.mu.Unlock()
		h.notify()
		return ctx.Err()
	}
	if fetchErr != nil {
		h.countFetchFailure(fetchErr, req)
		log.WithError(fetchErr).Warn("fetch failed")
		h.setStateLocked(StateError, fetchErr)
		h.mu.Unlock()
		h.notify()
		return fetchErr
	}

	err = h.renderLocked(req, gen, primary, breadth, log)
	h.mu.Unlock()
	h.notify()
	return err
}

// Refresh re-requests the current chart. It does nothing before the first
// Request.
func (h *Host) Refresh(ctx context.Context) error {
	h.mu.Lock()
	req := h.req
	h.mu.Unlock()
	if req.Symbol == "" {
		return nil
	}
	return h.Request(ctx, req)
}

func (h *Host) fetch(ctx context.Context, req model.Request) (primary, breadth []model.RawRecord, err error) {
	dt, rt := req.PrimaryFetch()
	if !req.NeedsBreadth() {
		primary, err = h.fetcher.Fetch(ctx, dt, rt, req.Symbol)
		return primary, nil, err
	}

	// Both series must arrive before anything is applied.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primary, err = h.fetcher.Fetch(gctx, dt, rt, req.Symbol)
		return err
	})
	g.Go(func() error {
		var err error
		breadth, err = h.fetcher.Fetch(gctx, model.DataMarket, model.ResultSingle, model.BreadthSymbol)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return primary, breadth, nil
}

func (h *Host) countFetchFailure(err error, req model.Request) {
	dt, _ := req.PrimaryFetch()
	var fe *model.FetchError
	if errors.As(err, &fe) && fe.DataType != "" {
		dt = fe.DataType
	}
	h.metrics.FetchFailures.WithLabelValues(string(dt)).Inc()
}

// renderLocked validates, computes, plans and draws one fetched result.
func (h *Host) renderLocked(req model.Request, gen uint64, primaryRaw, breadthRaw []model.RawRecord, log *logrus.Entry) error {
	start := time.Now()
	_, rt := req.PrimaryFetch()
	primary, err := validator.Validate(primaryRaw, rt)
	if err != nil {
		log.WithError(err).Warn("invalid primary series")
		h.setStateLocked(StateError, err)
		return err
	}
	var breadth validator.Series
	if req.NeedsBreadth() {
		if breadth, err = validator.Validate(breadthRaw, model.ResultSingle); err != nil {
			log.WithError(err).Warn("invalid breadth series")
			h.setStateLocked(StateError, err)
			return err
		}
	}

	if primary.Len() == 0 {
		log.Info("no data for symbol")
		h.setStateLocked(StateEmpty, nil)
		return nil
	}

	panes, err := layout.Plan(layout.Input{
		Symbol:  req.Symbol,
		Mode:    req.Mode,
		Bars:    primary.Bars,
		Points:  primary.Points,
		Breadth: breadth.Points,
	})
	if err != nil {
		h.setStateLocked(StateError, err)
		return err
	}
	h.metrics.IndicatorComputeDur.Observe(time.Since(start).Seconds())

	s := &Session{
		Request:    req,
		Generation: gen,
		Panes:      panes,
		Samples:    primary.Len(),
		Range:      trailingYear(primary),
		surface:    h.factory(h.width, h.height),
		width:      h.width,
	}
	s.unregister = h.addResizeListenerLocked(func(width int) error { return s.resize(width) })
	h.current = s

	if err := s.draw(); err != nil {
		s.DrawErr = err
		h.metrics.RenderFailures.Inc()
		log.WithError(err).Error("chart drawing failed")
	}
	h.setStateLocked(StateReady, nil)
	return nil
}

// Resize changes the width of the drawn chart. It touches geometry only and
// is a no-op when the width is unchanged.
func (h *Host) Resize(width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: %d", surface.ErrBadWidth, width)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateReady || h.current == nil {
		return model.ErrNotReady
	}
	h.width = width
	for _, fn := range h.listeners {
		if err := fn(width); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	}
	return nil
}

// addResizeListenerLocked registers fn and returns its unregister func.
func (h *Host) addResizeListenerLocked(fn func(int) error) func() {
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() { delete(h.listeners, id) }
}

// ListenerCount returns the number of registered resize listeners.
func (h *Host) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// teardownLocked cancels any in-flight fetch and disposes the live session.
func (h *Host) teardownLocked() {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if s := h.current; s != nil {
		if err := s.dispose(); err != nil {
			h.log.WithError(err).WithField("generation", s.Generation).Warn("dispose surface")
		}
		h.current = nil
	}
}

func (h *Host) setStateLocked(state State, err error) {
	h.state = state
	h.err = err
	h.updatedAt = time.Now()
	h.metrics.SessionState.Set(float64(state))
}

// Close tears down the live session and moves the host to Empty for good.
// In-flight requests resolve as stale.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.gen++
	h.teardownLocked()
	h.setStateLocked(StateEmpty, nil)
	h.mu.Unlock()
	h.notify()
	return nil
}

// State returns the current state and the error stored with it.
func (h *Host) State() (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.err
}

// Current returns the live session, or nil.
func (h *Host) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Snapshot returns a copy of the host state.
func (h *Host) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Host) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      h.state,
		Request:    h.req,
		Generation: h.gen,
		Width:      h.width,
		Height:     h.height,
		UpdatedAt:  h.updatedAt,
		Closed:     h.closed,
	}
	if h.err != nil {
		snap.Error = h.err.Error()
	}
	if s := h.current; s != nil && h.state == StateReady {
		snap.Panes = s.drawnPanes()
		snap.Samples = s.Samples
		snap.Range52W = s.Range
		if s.DrawErr != nil {
			snap.DrawError = s.DrawErr.Error()
		}
	}
	return snap
}

// RenderPNG writes the drawn chart as a PNG image.
func (h *Host) RenderPNG(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateReady || h.current == nil {
		return model.ErrNotReady
	}
	r, ok := h.current.surface.(interface{ RenderPNG(io.Writer) error })
	if !ok {
		return ErrNoRaster
	}
	return r.RenderPNG(w)
}

// OnChange registers fn to receive a snapshot after every state transition.
// Observers run on the goroutine that caused the transition and must not
// block. The returned func unregisters fn.
func (h *Host) OnChange(fn func(Snapshot)) func() {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	id := h.nextObs
	h.nextObs++
	h.observers[id] = fn
	return func() {
		h.obsMu.Lock()
		defer h.obsMu.Unlock()
		delete(h.observers, id)
	}
}

func (h *Host) notify() {
	snap := h.Snapshot()
	h.obsMu.Lock()
	fns := make([]func(Snapshot), 0, len(h.observers))
	for _, fn := range h.observers {
		fns = append(fns, fn)
	}
	h.obsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
