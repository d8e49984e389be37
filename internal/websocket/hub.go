package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cellviewer/internal/config"
	"cellviewer/internal/infrastructure"
)

// ErrHubStopped is returned when registering with a hub that is not running
var ErrHubStopped = errors.New("websocket hub is not running")

// Hub maintains the set of active clients, answers their requests through a
// Handler and broadcasts job events to all of them
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	handler Handler
	cfg     config.WebSocketConfig
	metrics *infrastructure.AnalysisMetrics
	logger  *slog.Logger

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}
}

// NewHub creates a hub. metrics may be nil.
func NewHub(handler Handler, cfg config.WebSocketConfig, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = config.WebSocketPongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 4096
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		handler:    handler,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in a new goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and waits for the hub loop to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
				h.metrics.RecordWebSocketClients(ctx, -1)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.RecordWebSocketClients(ctx, 1)

			c.logger.InfoContext(c.ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("remote_addr", c.remoteAddr))

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
				c.close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.metrics.RecordWebSocketClients(ctx, -1)
				c.logger.InfoContext(c.ctx, "client unregistered",
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(c.connectedAt)))
			}

		case payload := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for c := range h.clients {
				if !c.enqueue(payload) {
					dropped++
				}
			}
			count := len(h.clients)
			h.mu.RUnlock()

			h.logger.Debug("broadcast sent",
				slog.Int("client_count", count),
				slog.Int("payload_size", len(payload)))
			if dropped > 0 {
				h.logger.Warn("broadcast dropped for slow clients", slog.Int("dropped", dropped))
			}
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast sends a message of the given type to every client
func (h *Hub) Broadcast(msgType string, data interface{}) error {
	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}
	payload, err := Message{Type: msgType, Data: data}.encode()
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msgType, err)
	}
	select {
	case h.broadcast <- payload:
		h.metrics.RecordWebSocketMessage(context.Background(), "out", msgType)
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
