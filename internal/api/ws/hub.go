package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/your-org/mediascan/internal/models"
	"github.com/your-org/mediascan/internal/observability"
	"github.com/your-org/mediascan/pkg/dto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a connected WebSocket client.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	category string // optional filter for preview/deleted events
}

// Hub maintains active WebSocket clients and broadcasts scan events.
// It retains the last message per replay key (progress per media kind,
// preview per category) so a client that connects mid-scan immediately
// sees the current value instead of waiting for the next update.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	lastMu sync.Mutex
	last   map[string][]byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		last:       make(map[string][]byte),
	}
}

// Run starts the hub event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			observability.WSConnections.Inc()
			h.replay(client)
			slog.Debug("ws client connected", "filter", client.category)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			observability.WSConnections.Dec()
			slog.Debug("ws client disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(message) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client buffer full, disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// wants reports whether this client's category filter admits the message.
func (c *Client) wants(message []byte) bool {
	if c.category == "" {
		return true
	}
	var evt dto.WSEvent
	if err := json.Unmarshal(message, &evt); err != nil {
		return true
	}
	switch {
	case evt.Preview != nil:
		return evt.Preview.Category == c.category
	case evt.Deleted != nil:
		return evt.Deleted.Category == c.category
	default:
		return true
	}
}

// replay sends the retained last value of each key to a fresh client.
func (h *Hub) replay(client *Client) {
	h.lastMu.Lock()
	defer h.lastMu.Unlock()
	for _, msg := range h.last {
		if !client.wants(msg) {
			continue
		}
		select {
		case client.send <- msg:
		default:
			return
		}
	}
}

func (h *Hub) publish(replayKey string, event dto.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal ws event", "error", err)
		return
	}
	if replayKey != "" {
		h.lastMu.Lock()
		h.last[replayKey] = data
		h.lastMu.Unlock()
	}
	h.broadcast <- data
}

// Progress broadcasts a scan progress update.
func (h *Hub) Progress(ev models.ProgressEvent) {
	h.publish("progress:"+string(ev.Kind), dto.WSEvent{
		Type: "scan_progress",
		Progress: &dto.ProgressPayload{
			ScanID:   ev.ScanID,
			Kind:     string(ev.Kind),
			Index:    ev.Index,
			Fraction: ev.Fraction,
			Finished: ev.Finished,
		},
	})
}

// Preview broadcasts a category preview update.
func (h *Hub) Preview(ev models.PreviewEvent) {
	h.publish("preview:"+string(ev.Category), dto.WSEvent{
		Type: "category_preview",
		Preview: &dto.PreviewPayload{
			Category:   string(ev.Category),
			AssetID:    ev.AssetID,
			PreviewURL: "/v1/media/" + ev.AssetID + "/thumbnail",
		},
	})
}

// MediaDeleted broadcasts an asset removal. Not retained for replay.
func (h *Hub) MediaDeleted(ev models.MediaDeletedEvent) {
	h.publish("", dto.WSEvent{
		Type: "media_deleted",
		Deleted: &dto.MediaDeletedPayload{
			Category: string(ev.Category),
			AssetID:  ev.AssetID,
		},
	})
}

// HandleWS handles WebSocket upgrade requests.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 64),
		category: c.Query("category"),
	}

	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		// We don't process incoming messages from clients.
		// This loop exists to detect disconnection.
	}
}
