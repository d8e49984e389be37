package websocket

import (
	"context"
	"encoding/json"
	"time"
)

// Message types
const (
	TypeConnection = "connection"
	TypeHeartbeat  = "heartbeat"
	TypePreview    = "preview"
	TypeJobs       = "jobs"
	TypeError      = "error"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

func (m Message) encode() ([]byte, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return json.Marshal(m)
}

// Handler answers requests sent by clients. The returned data is sent back
// to the requesting client as a preview message, an error as an error
// message.
type Handler interface {
	HandleMessage(ctx context.Context, data []byte) (interface{}, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, data []byte) (interface{}, error)

// HandleMessage calls f
func (f HandlerFunc) HandleMessage(ctx context.Context, data []byte) (interface{}, error) {
	return f(ctx, data)
}
