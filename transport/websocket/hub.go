package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quizwire/quizwire/presenter"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Event is one WebSocket frame sent to channel watchers.
type Event struct {
	ChannelKey string             `json:"channel_key"`
	Event      string             `json:"event"`
	Message    *presenter.Message `json:"message,omitempty"`
	Data       interface{}        `json:"data,omitempty"`
}

// Client is one connected watcher of a quiz channel.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	channelKey string
}

// Hub maintains the set of connected watchers per channel key and fans quiz
// events out to them.
type Hub struct {
	logger *slog.Logger

	// Registered clients by channel key
	channels map[string]map[*Client]bool

	// Inbound events to fan out
	broadcast chan *Event

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		channels:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Event),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// ServeWS upgrades the request and attaches the client to a channel key.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, channelKey string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 256),
		channelKey: channelKey,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastEvent queues an event for every watcher of the channel.
func (h *Hub) BroadcastEvent(channelKey, event string, msg *presenter.Message, data interface{}) {
	h.broadcast <- &Event{
		ChannelKey: channelKey,
		Event:      event,
		Message:    msg,
		Data:       data,
	}
}

// registerClient adds a client to a channel.
func (h *Hub) registerClient(client *Client) {
	if h.channels[client.channelKey] == nil {
		h.channels[client.channelKey] = make(map[*Client]bool)
	}
	h.channels[client.channelKey][client] = true

	h.logger.Info("watcher connected", "channel", client.channelKey,
		"watchers", len(h.channels[client.channelKey]))
}

// unregisterClient removes a client from a channel.
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.channels[client.channelKey]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty channels
			if len(clients) == 0 {
				delete(h.channels, client.channelKey)
			}

			h.logger.Info("watcher disconnected", "channel", client.channelKey,
				"watchers", len(clients))
		}
	}
}

// broadcastEvent sends an event to all watchers of its channel.
func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("event marshal failed", "error", err)
		return
	}

	if clients, ok := h.channels[event.ChannelKey]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Client's send channel is full, close it
				h.unregisterClient(client)
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Watchers are read-only; the loop only keeps the connection alive.
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", "channel", c.channelKey, "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
