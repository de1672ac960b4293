package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const clientBuffer = 256

// clientAction is a JSON message sent by a websocket client.
type clientAction struct {
	Action  string          `json:"action"`
	Channel string          `json:"channel"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TopicAuthorizer decides whether a connection may join a topic.
type TopicAuthorizer func(r *http.Request, topic string) bool

// Client is one websocket connection and its topic subscriptions.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	channels map[string]bool
	allow    func(topic string) bool
	mu       sync.Mutex
}

// Hub fans bus events out to websocket clients subscribed to their topic.
type Hub struct {
	bus      *Bus
	upgrader websocket.Upgrader
	authz    TopicAuthorizer
	logger   *slog.Logger

	clients     map[*Client]bool
	channelSubs map[string]map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}

	mu sync.RWMutex
}

// NewHub creates a hub relaying events of bus. A nil authz allows every topic.
func NewHub(bus *Bus, authz TopicAuthorizer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		authz:       authz,
		logger:      logger,
		clients:     make(map[*Client]bool),
		channelSubs: make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) error {
	sub := h.bus.Subscribe(AllTopics)
	defer sub.Close()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("encoding event for websocket failed", "topic", ev.Topic, "error", err)
				continue
			}
			h.fanout(ev.Topic, data)
		}
	}
}

func (h *Hub) fanout(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.channelSubs[topic] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("websocket client too slow, disconnecting", "topic", topic)
			h.removeLocked(client)
		}
	}
}

// removeLocked drops a client from every subscription. Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	client.mu.Lock()
	for ch := range client.channels {
		if subs, exists := h.channelSubs[ch]; exists {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.channelSubs, ch)
			}
		}
	}
	client.mu.Unlock()
}

func (h *Hub) subscribe(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}

	client.mu.Lock()
	client.channels[channelID] = true
	client.mu.Unlock()

	if h.channelSubs[channelID] == nil {
		h.channelSubs[channelID] = make(map[*Client]bool)
	}
	h.channelSubs[channelID][client] = true
}

func (h *Hub) unsubscribe(client *Client, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.channels, channelID)
	client.mu.Unlock()

	if subs, ok := h.channelSubs[channelID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channelSubs, channelID)
		}
	}
}

// reply queues a control event for this client only.
func (c *Client) reply(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump handles subscribe, unsubscribe and broadcast actions.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var action clientAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.reply(Event{Kind: KindError, Name: "invalid_message"})
			continue
		}
		if action.Channel == "" {
			c.reply(Event{Kind: KindError, Name: "missing_channel"})
			continue
		}

		switch action.Action {
		case "subscribe":
			if !c.allow(action.Channel) {
				c.reply(Event{Topic: action.Channel, Kind: KindError, Name: "forbidden"})
				continue
			}
			c.hub.subscribe(c, action.Channel)
			c.reply(Event{Topic: action.Channel, Kind: KindAck, Name: "subscribed"})
		case "unsubscribe":
			c.hub.unsubscribe(c, action.Channel)
			c.reply(Event{Topic: action.Channel, Kind: KindAck, Name: "unsubscribed"})
		case "broadcast":
			if !c.allow(action.Channel) || action.Event == "" {
				c.reply(Event{Topic: action.Channel, Kind: KindError, Name: "forbidden"})
				continue
			}
			var payload any
			if len(action.Payload) > 0 {
				payload = action.Payload
			}
			if err := c.hub.bus.Broadcast(action.Channel, action.Event, payload); err != nil {
				c.reply(Event{Topic: action.Channel, Kind: KindError, Name: "invalid_payload"})
			}
		default:
			c.reply(Event{Topic: action.Channel, Kind: KindError, Name: "unknown_action"})
		}
	}
}

// writePump drains the client's send queue onto the connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeHTTP upgrades the request and registers the new client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, clientBuffer),
		channels: make(map[string]bool),
		allow: func(topic string) bool {
			return h.authz == nil || h.authz(r, topic)
		},
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
