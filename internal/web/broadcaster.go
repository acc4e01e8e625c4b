package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Event kinds sent to status subscribers.
const (
	KindStatus = "status"
	KindSample = "sample"
	KindScan   = "scan"
)

// StatusEvent is one message of the status stream.
type StatusEvent struct {
	Time  string          `json:"t"`
	Kind  string          `json:"kind"`
	Level string          `json:"l,omitempty"`
	Msg   string          `json:"msg,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// StatusBroadcaster fans status events out to SSE and websocket clients.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	buffer  int
}

// NewStatusBroadcaster creates a broadcaster whose subscribers buffer up to
// 256 events.
func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
		buffer:  256,
	}
}

// Subscribe returns a channel of JSON-encoded events and the function that
// detaches it. The channel is closed by the cleanup.
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, b.buffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Subscribers returns the number of attached clients.
func (b *StatusBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish stamps and sends an event. Slow clients miss events rather than
// blocking the publisher.
func (b *StatusBroadcaster) Publish(evt StatusEvent) {
	if evt.Time == "" {
		evt.Time = time.Now().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Broadcast sends a status message at the given level.
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	b.Publish(StatusEvent{Kind: KindStatus, Level: level, Msg: msg})
}

// BroadcastData sends v, JSON-encoded, as the payload of an event of the
// given kind.
func (b *StatusBroadcaster) BroadcastData(kind string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Publish(StatusEvent{Kind: kind, Data: data})
	return nil
}

// BroadcastWriter adapts the broadcaster to io.Writer so log output can be
// mirrored to clients (debug.SetOutput).
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.b.Broadcast("log", line)
		}
	}
	return len(p), nil
}
