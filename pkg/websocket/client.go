// Package websocket streams live engagement counters from the reels API
// and hands them to the UI loop as reels.LiveCountMsg values.
package websocket

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/reels"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeLikeCountUpdate        MessageType = "like_count_update"
	MessageTypeSaveCountUpdate        MessageType = "save_count_update"
	MessageTypeCommentCountUpdate     MessageType = "comment_count_update"
	MessageTypeCommentLikeCountUpdate MessageType = "comment_like_count_update"
	MessageTypeHeartbeat              MessageType = "heartbeat"
	MessageTypePong                   MessageType = "pong"
)

// Message is the envelope every frame is wrapped in.
type Message struct {
	Type    MessageType         `json:"type"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// CountPayload is the payload of every *_count_update message.
type CountPayload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

var kinds = map[MessageType]reels.Kind{
	MessageTypeLikeCountUpdate:        reels.KindLike,
	MessageTypeSaveCountUpdate:        reels.KindSave,
	MessageTypeCommentCountUpdate:     reels.KindComments,
	MessageTypeCommentLikeCountUpdate: reels.KindCommentLike,
}

// Decode parses one frame. ok is false for frames that carry no counter.
func Decode(data []byte) (msg reels.LiveCountMsg, ok bool) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Debug("Dropping malformed websocket frame", "error", err)
		return msg, false
	}
	kind, known := kinds[m.Type]
	if !known {
		return msg, false
	}
	var p CountPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil || p.ID == "" {
		return msg, false
	}
	return reels.LiveCountMsg{Kind: kind, ID: p.ID, Count: p.Count}, true
}

// Encode builds a counter frame. The dev server uses it to push updates.
func Encode(t MessageType, id string, count int) ([]byte, error) {
	payload, err := json.Marshal(CountPayload{ID: id, Count: count})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: t, Payload: payload})
}

// MessageTypeFor is the inverse of the kind mapping used by Decode.
func MessageTypeFor(kind reels.Kind) (MessageType, bool) {
	for t, k := range kinds {
		if k == kind {
			return t, true
		}
	}
	return "", false
}

// Config holds WebSocket client configuration
type Config struct {
	URL                  string
	Token                string
	ConnectTimeout       time.Duration
	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int // negative means unlimited
}

// DefaultConfig returns a configuration for the stream at rawURL.
func DefaultConfig(rawURL string) Config {
	return Config{
		URL:                  rawURL,
		ConnectTimeout:       15 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   2 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: -1,
	}
}

// FromConfig reads ws.url and api.token.
func FromConfig() Config {
	cfg := DefaultConfig(config.GetString("ws.url"))
	cfg.Token = config.GetString("api.token")
	return cfg
}

// ConnectionState represents the state of the WebSocket connection
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	MessagesReceived int64
	MessagesDropped  int64
	ReconnectCount   int
	LastError        string
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
}

// ClosedMsg is delivered by Listen once the stream has stopped for good.
type ClosedMsg struct{ Err error }

// Client manages one live counter stream.
type Client struct {
	config Config
	state  atomic.Value // ConnectionState

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	events chan reels.LiveCountMsg
	ctx    context.Context
	cancel context.CancelFunc

	statsLock sync.RWMutex
	stats     ConnectionStats
	lastErr   error
}

// NewClient creates a new WebSocket client
func NewClient(cfg Config) *Client {
	c := &Client{
		config: cfg,
		events: make(chan reels.LiveCountMsg, 64),
	}
	c.state.Store(StateDisconnected)
	return c
}

// Connect dials the stream and starts the read loop. The stream stops
// when ctx is cancelled, Disconnect is called, or reconnects run out.
func (c *Client) Connect(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.setState(StateConnecting)

	conn, err := c.dial()
	if err != nil {
		c.setState(StateError)
		c.recordError(err)
		c.cancel()
		close(c.events)
		return fmt.Errorf("connect live counters: %w", err)
	}
	c.attach(conn)

	go c.run()
	go c.heartbeatLoop()

	logger.Debug("WebSocket connected", "url", c.config.URL)
	return nil
}

// Disconnect closes the connection and stops reconnecting.
func (c *Client) Disconnect() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
	logger.Debug("WebSocket disconnected")
}

// Events exposes decoded counter updates. The channel is closed when the
// stream stops.
func (c *Client) Events() <-chan reels.LiveCountMsg {
	return c.events
}

// Listen waits for the next counter update. Hosts re-issue it after each
// LiveCountMsg they receive.
func (c *Client) Listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.events
		if !ok {
			return ClosedMsg{Err: c.err()}
		}
		return msg
	}
}

// IsConnected returns true if the connection is established
func (c *Client) IsConnected() bool {
	return c.getState() == StateConnected
}

// GetStats returns connection statistics
func (c *Client) GetStats() ConnectionStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()
	return c.stats
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", err
	}
	if c.config.Token != "" {
		q := u.Query()
		q.Set("token", c.config.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	dialCtx := c.ctx
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(c.ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	return conn, err
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateConnected)
	c.statsLock.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsLock.Unlock()
}

// run owns the events channel: it is the only sender and closes it on exit.
func (c *Client) run() {
	defer close(c.events)
	for {
		c.readLoop()
		if c.ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}
		if !c.reconnect() {
			return
		}
	}
}

func (c *Client) readLoop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	defer func() {
		conn.Close()
		c.statsLock.Lock()
		c.stats.DisconnectedAt = time.Now()
		c.statsLock.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.recordError(err)
				logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		msg, ok := Decode(data)
		if !ok {
			continue
		}
		select {
		case c.events <- msg:
			c.statsLock.Lock()
			c.stats.MessagesReceived++
			c.statsLock.Unlock()
		default:
			// counters are absolute; the next push supersedes this one
			c.statsLock.Lock()
			c.stats.MessagesDropped++
			c.statsLock.Unlock()
		}
	}
}

func (c *Client) reconnect() bool {
	c.setState(StateReconnecting)
	delay := c.config.ReconnectBaseDelay
	for attempt := 0; ; attempt++ {
		if c.config.MaxReconnectAttempts >= 0 && attempt >= c.config.MaxReconnectAttempts {
			c.setState(StateError)
			logger.Error("Max reconnection attempts reached", "attempts", attempt)
			return false
		}

		wait := delay
		if delay > 1 {
			wait += time.Duration(rand.Int63n(int64(delay / 2)))
		}
		logger.Debug("Reconnecting WebSocket", "attempt", attempt+1, "wait_ms", wait.Milliseconds())

		select {
		case <-c.ctx.Done():
			c.setState(StateDisconnected)
			return false
		case <-time.After(wait):
		}

		conn, err := c.dial()
		if err != nil {
			c.recordError(err)
			delay *= 2
			if delay > c.config.ReconnectMaxDelay {
				delay = c.config.ReconnectMaxDelay
			}
			continue
		}

		c.attach(conn)
		c.statsLock.Lock()
		c.stats.ReconnectCount++
		c.statsLock.Unlock()
		logger.Debug("WebSocket reconnected")
		return true
	}
}

func (c *Client) heartbeatLoop() {
	if c.config.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.IsConnected() {
				continue
			}
			if err := c.send(Message{Type: MessageTypeHeartbeat}); err != nil {
				logger.Debug("Failed to send heartbeat", "error", err)
			}
		}
	}
}

func (c *Client) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) setState(state ConnectionState) {
	c.state.Store(state)
}

func (c *Client) getState() ConnectionState {
	return c.state.Load().(ConnectionState)
}

func (c *Client) recordError(err error) {
	c.statsLock.Lock()
	c.stats.LastError = err.Error()
	c.lastErr = err
	c.statsLock.Unlock()
}

func (c *Client) err() error {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()
	return c.lastErr
}
