package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-evergreen/internal/log"
)

// Handler receives messages clients send to the hub.
type Handler func(c *Client, data []byte)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	log *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Payload

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Messages addressed to a single client
	unicast chan directMessage

	// Closed when Run returns
	done chan struct{}

	// Mutex for client map (read-only access from outside)
	mu sync.RWMutex

	onMessage atomic.Pointer[Handler]
	running   atomic.Bool
	dropped   atomic.Uint64
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		log:        log.Component("hub").With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Payload, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		unicast:    make(chan directMessage, 64),
		done:       make(chan struct{}),
	}
}

type directMessage struct {
	client *Client
	msg    Payload
}

// OnMessage sets the handler for messages received from clients.
func (h *Hub) OnMessage(fn Handler) {
	h.onMessage.Store(&fn)
}

// Run starts the hub's main loop until ctx is cancelled.
// This should be called in a goroutine
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "clients", count)

		case u := <-h.unicast:
			h.mu.Lock()
			if _, ok := h.clients[u.client]; ok {
				select {
				case u.client.send <- u.msg:
				default:
					h.log.Debug("client buffer full, dropping reply", "client", u.client.ID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full; drop it rather than stall the others
					close(client.send)
					delete(h.clients, client)
					h.log.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Payload) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.log.Debug("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Text(data))
	return nil
}

// BroadcastBinary broadcasts binary data
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Binary(data))
}

// SendTo queues a message for a single client. It never blocks.
func (h *Hub) SendTo(c *Client, msg Payload) {
	select {
	case h.unicast <- directMessage{client: c, msg: msg}:
	default:
		h.dropped.Add(1)
	}
}

// SendJSONTo encodes v and queues it for a single client.
func (h *Hub) SendJSONTo(c *Client, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.SendTo(c, Text(data))
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were discarded because the hub was
// backed up.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

func (h *Hub) handle(c *Client, data []byte) {
	if fn := h.onMessage.Load(); fn != nil {
		(*fn)(c, data)
	}
}
