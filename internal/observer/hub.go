// Package observer streams world signals to read-only websocket clients.
package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/config"
)

// Message is one signal as sent to observers.
type Message struct {
	ID    string `json:"id"`
	Run   string `json:"run"`
	Type  string `json:"type"`
	Level string `json:"level"`
	Tick  uint64 `json:"tick"`
	Data  any    `json:"data,omitempty"`
}

// NewMessage stamps a message with a fresh ULID.
func NewMessage(run, typ, level string, tick uint64, data any) Message {
	return Message{ID: ulid.Make().String(), Run: run, Type: typ, Level: level, Tick: tick, Data: data}
}

type client struct {
	conn *websocket.Conn
	out  chan []byte
}

// Hub fans encoded messages out to every connected observer. Publishing
// never blocks: a client whose queue is full misses the message.
type Hub struct {
	log       *zap.Logger
	upgrader  websocket.Upgrader
	queueSize int
	writeWait time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	dropped int
}

func NewHub(cfg config.ObserverConfig, log *zap.Logger) *Hub {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 5 * time.Second
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // read-only feed
		},
		queueSize: cfg.QueueSize,
		writeWait: cfg.WriteWait,
		clients:   make(map[*client]struct{}),
	}
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{conn: conn, out: make(chan []byte, h.queueSize)}
		if !h.add(c) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer h.remove(c)
		h.log.Debug("observer connected", zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						_ = conn.Close()
						return
					}
				}
			}
		}()

		// Observers only listen; reading detects the close.
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.log.Debug("observer disconnected", zap.String("remote", r.RemoteAddr))
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Publish queues an encoded message for every client.
func (h *Hub) Publish(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- b:
		default:
			h.dropped++
		}
	}
}

// PublishJSON encodes v and publishes it.
func (h *Hub) PublishJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Publish(b)
	return nil
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many per-client deliveries were skipped.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		_ = c.conn.Close()
	}
}
