package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cellviewer/internal/config"
	"cellviewer/internal/infrastructure"
)

// Time allowed to write a message to the peer
const writeWait = 10 * time.Second

const sendBuffer = 64

var heartbeat = []byte(`{"type":"heartbeat"}`)

// Client is a middleman between one websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection

	mu     sync.Mutex
	send   chan []byte
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewClient creates a client for conn. traceID ties the client's logs and
// replies to the upgrade request.
func NewClient(hub *Hub, conn Connection, traceID string) *Client {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		logger:      hub.logger.With(slog.String("client_id", id), slog.String("trace_id", traceID)),
	}
}

// ID returns the client's unique ID
func (c *Client) ID() string { return c.id }

// enqueue queues payload unless the client is closed or its buffer is full
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close stops the write pump and cancels in-flight requests
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
		c.cancel()
	}
}

func (c *Client) reply(m Message) {
	m.TraceID = c.traceID
	payload, err := m.encode()
	if err != nil {
		c.logger.ErrorContext(c.ctx, "failed to encode message",
			slog.String("type", m.Type),
			slog.String("error", err.Error()))
		return
	}
	if !c.enqueue(payload) {
		c.logger.WarnContext(c.ctx, "reply dropped", slog.String("type", m.Type))
		return
	}
	c.hub.metrics.RecordWebSocketMessage(c.ctx, "out", m.Type)
}

// ReadPump reads requests from the connection and answers them through the
// hub's handler until the connection fails
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(c.ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		message = bytes.TrimSpace(message)
		if bytes.Equal(message, heartbeat) {
			c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
			continue
		}

		c.hub.metrics.RecordWebSocketMessage(c.ctx, "in", TypePreview)
		data, err := c.hub.handler.HandleMessage(c.ctx, message)
		if err != nil {
			c.logger.DebugContext(c.ctx, "request rejected", slog.String("error", err.Error()))
			c.reply(Message{Type: TypeError, Error: err.Error()})
			continue
		}
		c.reply(Message{Type: TypePreview, Data: data})
	}
}

// WritePump writes queued messages and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(c.ctx, "write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// NewUpgrader creates an upgrader that accepts same-origin requests and the
// given origins. "*" accepts every origin.
func NewUpgrader(cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			if origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			logger.WarnContext(r.Context(), "websocket origin not allowed", slog.String("origin", origin))
			return false
		},
	}
}

// Serve registers an upgraded connection with the hub and starts its pumps
func Serve(hub *Hub, conn Connection, traceID string) (*Client, error) {
	c := NewClient(hub, conn, traceID)
	if err := hub.Register(c); err != nil {
		conn.Close()
		return nil, err
	}
	c.reply(Message{Type: TypeConnection, Data: map[string]string{
		"status":    "connected",
		"client_id": c.id,
	}})
	go c.WritePump()
	go c.ReadPump()
	return c, nil
}
