// Package gateway pushes chart snapshots to websocket clients and accepts
// resize and request messages from them.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/metrics"
	"StockAnalyzerView/internal/model"
	"StockAnalyzerView/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Controller receives the chart commands clients send. It may be nil, in
// which case the feed is read-only.
type Controller interface {
	Request(ctx context.Context, req model.Request) error
	Resize(width int) error
}

// Envelope is every message written to clients.
type Envelope struct {
	Type     string            `json:"type"` // snapshot or error
	Seq      int64             `json:"seq,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// Hub manages websocket clients and fans host snapshots out to them.
type Hub struct {
	ctrl     Controller
	policy   model.RequestPolicy
	metrics  *metrics.Metrics
	log      *logrus.Entry
	upgrader websocket.Upgrader

	// ctx bounds the requests clients start; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte
	seq     int64
	lastGen uint64    // generation of the last published snapshot
	lastAt  time.Time // and its UpdatedAt
}

// NewHub creates a Hub. ctrl may be nil. Client requests are resolved
// against policy.
func NewHub(ctrl Controller, policy model.RequestPolicy, m *metrics.Metrics, logger *logrus.Logger) *Hub {
	if m == nil {
		m = metrics.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		ctrl:    ctrl,
		policy:  policy,
		metrics: m,
		log:     logger.WithField("component", "gateway"),
		upgrader: websocket.Upgrader{
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: true,
		},
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*Client]bool),
	}
}

// Publish sends snap to every client and keeps it for clients that connect
// later. It never blocks: a client whose queue is full misses the update.
// Observers run outside the host lock, so a snapshot older than the last one
// published is dropped.
// Publish matches the signature of session.Host.OnChange observers.
func (h *Hub) Publish(snap session.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest != nil && (snap.Generation < h.lastGen ||
		snap.Generation == h.lastGen && snap.UpdatedAt.Before(h.lastAt)) {
		h.log.WithField("generation", snap.Generation).Debug("dropping out-of-order snapshot")
		return
	}
	h.lastGen, h.lastAt = snap.Generation, snap.UpdatedAt
	h.seq++
	data, err := json.Marshal(Envelope{Type: "snapshot", Seq: h.seq, Snapshot: &snap})
	if err != nil {
		h.log.WithError(err).Error("marshal snapshot")
		return
	}
	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Debug("client queue full, dropping snapshot")
		}
	}
}

// ServeHTTP upgrades the connection and registers the client. The latest
// snapshot, if any, is sent first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	conn.EnableWriteCompression(true)

	c := &Client{conn: conn, send: make(chan []byte, 64), hub: h}

	h.mu.Lock()
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.WSClients.Set(float64(count))
	h.log.WithField("clients", count).Info("ws client connected")

	go c.writePump()
	go c.readPump()
}

// RemoveClient unregisters c and closes its queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.WSClients.Set(float64(count))
	h.log.WithField("clients", count).Info("ws client disconnected")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close cancels client-started requests and disconnects every client.
func (h *Hub) Close() {
	h.cancel()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

func errorEnvelope(msg string) []byte {
	data, _ := json.Marshal(Envelope{Type: "error", Message: msg})
	return data
}

