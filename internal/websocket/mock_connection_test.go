package websocket

import (
	"errors"
	"sync"
	"time"
)

// MockConnection is an in-memory Connection. ReadMessage replays the queued
// messages and then blocks until Close.
type MockConnection struct {
	mu       sync.Mutex
	reads    chan []byte
	closing  chan struct{}
	closed   bool
	written  []MockMessage
	limit    int64
	deadline time.Time
}

// MockMessage is a frame written to a MockConnection
type MockMessage struct {
	Type int
	Data []byte
}

func NewMockConnection(reads ...string) *MockConnection {
	m := &MockConnection{
		reads:   make(chan []byte, len(reads)),
		closing: make(chan struct{}),
	}
	for _, r := range reads {
		m.reads <- []byte(r)
	}
	return m
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: data})
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.reads:
		return 1, data, nil
	default:
	}
	select {
	case data := <-m.reads:
		return 1, data, nil
	case <-m.closing:
		return 0, nil, errors.New("connection closed")
	}
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closing)
	}
	return nil
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	m.deadline = t
	m.mu.Unlock()
	return nil
}

func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	m.limit = limit
	m.mu.Unlock()
}

func (m *MockConnection) SetPongHandler(func(string) error) {}

func (m *MockConnection) RemoteAddr() string { return "127.0.0.1:4000" }

func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Written returns the text frames written so far
func (m *MockConnection) Written() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, 0, len(m.written))
	for _, w := range m.written {
		if w.Type == 1 {
			out = append(out, w)
		}
	}
	return out
}
