package gateway

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"StockAnalyzerView/internal/model"
)

// Client is a single websocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// inbound is a client command.
type inbound struct {
	Type   string `json:"type"` // request, resize or ping
	Symbol string `json:"symbol,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Width  int    `json:"width,omitempty"`
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in inbound
		if json.Unmarshal(msg, &in) != nil {
			c.reply(errorEnvelope("invalid message"))
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in inbound) {
	ctrl := c.hub.ctrl
	switch in.Type {
	case "ping":
		c.reply([]byte(`{"type":"pong"}`))
	case "resize":
		if ctrl == nil {
			c.reply(errorEnvelope("read-only feed"))
			return
		}
		if err := ctrl.Resize(in.Width); err != nil {
			c.reply(errorEnvelope(err.Error()))
		}
	case "request":
		if ctrl == nil {
			c.reply(errorEnvelope("read-only feed"))
			return
		}
		req, err := c.hub.policy.Resolve(in.Symbol, in.Mode)
		if err != nil {
			c.reply(errorEnvelope(err.Error()))
			return
		}
		// The result reaches every client as a snapshot; only failures are
		// answered directly. A superseded request is not a failure.
		go func() {
			err := ctrl.Request(c.hub.ctx, req)
			if err != nil && !errors.Is(err, model.ErrStaleRequest) {
				c.reply(errorEnvelope(err.Error()))
			}
		}()
	default:
		c.reply(errorEnvelope("unknown message type " + in.Type))
	}
}

// reply queues msg for this client only. It is dropped if the client is
// gone or its queue is full.
func (c *Client) reply(msg []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
