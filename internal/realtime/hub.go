// Package realtime pushes change notifications to connected websocket
// clients. Clients re-fetch on events; nothing here carries state.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"repairshop-backend/internal/metrics"
)

// Topics published by the services.
const (
	TopicOrders    = "orders"
	TopicInventory = "inventory"
	TopicUsers     = "users"
	TopicPrices    = "prices"
	TopicPayroll   = "payroll"
	TopicIssues    = "issues"
	TopicProof     = "proof_of_work"
)

// Channel is the Redis pub/sub channel shared by all instances.
const Channel = "realtime"

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// UserTopic is the private topic for one account's session events.
func UserTopic(id uuid.UUID) string {
	return "user:" + id.String()
}

type Event struct {
	Topic string      `json:"topic"`
	Type  string      `json:"type"`
	ID    string      `json:"id,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	At    time.Time   `json:"at"`

	// Revoke closes the account's live connections once the event is
	// delivered. Session narrows that to connections opened with one token.
	Revoke  bool   `json:"revoke,omitempty"`
	Session string `json:"session,omitempty"`

	Origin string `json:"origin,omitempty"`
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	topics  map[string]bool
	userID  uuid.UUID
	session string
}

type Hub struct {
	id         string
	redis      *redis.Client
	clients    map[*client]bool
	clientsMux sync.RWMutex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHub creates a hub. rdb may be nil for a single instance.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		id:      uuid.NewString(),
		redis:   rdb,
		clients: make(map[*client]bool),
	}
}

// Publish delivers ev locally and, when Redis is available, to the other instances.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	ev.Origin = h.id
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Realtime] encode %s/%s: %v", ev.Topic, ev.Type, err)
		return
	}
	h.deliver(ev, payload)

	if h.redis != nil {
		if err := h.redis.Publish(ctx, Channel, payload).Err(); err != nil {
			log.Printf("[Realtime] redis publish failed: %v", err)
		}
	}
}

// Run relays events published by other instances until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}
	sub := h.redis.Subscribe(ctx, Channel)
	defer sub.Close()
	log.Printf("[Realtime] Subscribed to redis channel %q", Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			if ev.Origin == h.id {
				continue
			}
			h.deliver(ev, []byte(msg.Payload))
		}
	}
}

// deliver never blocks: a client whose buffer is full loses the event.
func (h *Hub) deliver(ev Event, payload []byte) {
	var revoked []*client
	h.clientsMux.RLock()
	for c := range h.clients {
		if !c.topics[ev.Topic] {
			continue
		}
		select {
		case c.send <- payload:
		default:
			metrics.WebsocketDropped.Inc()
		}
		if ev.Revoke && ev.Topic == UserTopic(c.userID) && (ev.Session == "" || ev.Session == c.session) {
			revoked = append(revoked, c)
		}
	}
	h.clientsMux.RUnlock()

	// Closing send lets the write pump flush what is queued, then hang up.
	for _, c := range revoked {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.clientsMux.Lock()
	h.clients[c] = true
	h.clientsMux.Unlock()
	metrics.WebsocketClients.Inc()
}

func (h *Hub) unregister(c *client) {
	h.clientsMux.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
		metrics.WebsocketClients.Dec()
	}
	h.clientsMux.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// ParseTopics splits a comma separated topic list. The user's own topic is
// always included; other users' private topics are never granted.
func ParseTopics(raw string, userID uuid.UUID) map[string]bool {
	topics := map[string]bool{UserTopic(userID): true}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || strings.HasPrefix(t, "user:") {
			continue
		}
		topics[t] = true
	}
	return topics
}

// ServeWS upgrades the request and streams events for topics until the
// connection closes or the user's session is revoked. session is the id of
// the token the connection was opened with.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID, session string, topics map[string]bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Realtime] WebSocket upgrade error:", err)
		return
	}
	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		topics:  topics,
		userID:  userID,
		session: session,
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
