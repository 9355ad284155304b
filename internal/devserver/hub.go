package devserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	reelsws "github.com/zfogg/sidechain/reels/pkg/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans counter updates out to every connected live client.
type hub struct {
	clients    map[*liveClient]struct{}
	register   chan *liveClient
	unregister chan *liveClient
	broadcast  chan []byte
	metrics    *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub(m *Metrics) *hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &hub{
		clients:    make(map[*liveClient]struct{}),
		register:   make(chan *liveClient, 16),
		unregister: make(chan *liveClient, 16),
		broadcast:  make(chan []byte, 256),
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// run is the hub's event loop. It owns the clients map.
func (h *hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.LiveClients.Set(float64(len(h.clients)))
			logger.Debug("Live client connected", "active", len(h.clients))

		case c := <-h.unregister:
			h.drop(c)

		case data := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					logger.Warn("Live client too slow, dropping")
					h.drop(c)
				}
			}
		}
	}
}

func (h *hub) drop(c *liveClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.LiveClients.Set(float64(len(h.clients)))
}

func (h *hub) stop() {
	h.cancel()
	h.wg.Wait()
}

// publish queues a counter update for every client.
func (h *hub) publish(kind reels.Kind, id string, count int) {
	mt, ok := reelsws.MessageTypeFor(kind)
	if !ok {
		return
	}
	data, err := reelsws.Encode(mt, id, count)
	if err != nil {
		logger.Error("Encoding live counter", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	}
}

// serve upgrades the request and pumps messages until either side closes.
func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	c := &liveClient{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	c.readPump()

	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// readPump discards client frames; heartbeats only keep the socket busy.
func (c *liveClient) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *liveClient) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
