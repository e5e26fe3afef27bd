// Package ws serves the websocket surfaces: live gesture streams for a swipe
// session and a broadcast feed of tracker changes.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/pkg/logger"
	"github.com/okian/sparkapply/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{ //nolint:gochecknoglobals // shared upgrader
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Hub fans tracker changes out to every connected feed client.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     logger.Logger
}

// NewHub creates a hub. Call Run to start fan-out.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger.Get().Named("ws_hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations and broadcasts until ctx is done, then drops
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug(ctx, "feed client connected", logger.Int("total_clients", total))

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug(ctx, "feed client disconnected", logger.Int("total_clients", total))

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow reader
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a client to the fan-out set.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the fan-out set.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues message for every client. It never blocks; when the
// buffer is full the message is dropped.
func (h *Hub) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warn(context.Background(), "feed broadcast dropped", logger.String("reason", "buffer_full"))
		metrics.RecordErrorByComponent("ws", "broadcast_dropped")
		return false
	}
}

// ClientCount returns the number of registered feed clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ApplicationRecorded publishes a tracker change to the feed.
func (h *Hub) ApplicationRecorded(app model.Application) {
	b, err := json.Marshal(frame{Type: frameApplication, Application: &app})
	if err != nil {
		h.logger.Error(context.Background(), "encode application frame", logger.Error(err))
		return
	}
	h.Broadcast(b)
}

// ServeFeed handles GET /applications/ws.
func (h *Hub) ServeFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "feed upgrade failed", logger.Error(err))
		return
	}
	client := newClient(h, conn)
	h.Register(client)
	go client.writePump()
	go client.readPump()
}
