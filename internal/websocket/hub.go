package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/metrics"
	"github.com/savanna-table/savanna-backend/pkg/logger"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ClientMessage is what a browser may send over the socket
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// OrderSummary is the order payload pushed with every event
type OrderSummary struct {
	ID            uint                `json:"id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uint                `json:"user_id"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Total         float64             `json:"total"`
	CreatedAt     time.Time           `json:"created_at"`
}

type Event struct {
	Type           string            `json:"type"`
	Order          OrderSummary      `json:"order"`
	PreviousStatus model.OrderStatus `json:"previous_status,omitempty"`
}

// principal identifies who is on the other end; user and admin ids come from different tables
type principal struct {
	role string
	id   uint
}

// Client is one open socket. A principal may hold several.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Role   string
	Send   chan []byte

	messageCount  int
	lastResetTime time.Time
	rateMu        sync.Mutex
}

func (c *Client) key() principal {
	return principal{role: c.Role, id: c.UserID}
}

type delivery struct {
	event   []byte
	toAdmin bool
	toUser  uint    // 0 for none
	direct  *Client // reply to a single socket
}

// Hub fans order events out to connected customers and admins
type Hub struct {
	clients map[principal][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[principal][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan delivery, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.key()] = append(h.clients[client.key()], client)
			sessions := len(h.clients[client.key()])
			h.mu.Unlock()
			metrics.WebSocketConnected()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"role":           client.Role,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.broadcast:
			h.deliver(d)

		case <-h.done:
			h.mu.Lock()
			for key, list := range h.clients {
				for _, c := range list {
					close(c.Send)
					metrics.WebSocketDisconnected()
				}
				delete(h.clients, key)
			}
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.key()]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.key())
	} else {
		h.clients[client.key()] = kept
	}
	close(client.Send)
	metrics.WebSocketDisconnected()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"role":               client.Role,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	var targets []*Client
	if d.direct != nil {
		for _, c := range h.clients[d.direct.key()] {
			if c == d.direct {
				targets = append(targets, c)
			}
		}
	}
	if d.toAdmin {
		for key, list := range h.clients {
			if key.role == RoleAdmin {
				targets = append(targets, list...)
			}
		}
	}
	if d.toUser != 0 {
		targets = append(targets, h.clients[principal{role: RoleUser, id: d.toUser}]...)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- d.event:
		default:
			// slow reader; drop it rather than block the hub
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user_id": client.UserID,
				"role":    client.Role,
			})
		}
	}
}

func (h *Hub) publish(event Event, toAdmin bool, toUser uint) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal order event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}

	select {
	case h.broadcast <- delivery{event: data, toAdmin: toAdmin, toUser: toUser}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type":     event.Type,
			"order_id": event.Order.ID,
		})
	}
}

func summarize(order *model.Order) OrderSummary {
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		CreatedAt:     order.CreatedAt,
	}
}

// OrderCreated notifies every connected admin
func (h *Hub) OrderCreated(order *model.Order) {
	h.publish(Event{Type: EventOrderCreated, Order: summarize(order)}, true, 0)
}

// OrderStatusChanged notifies the customer who placed the order and every connected admin
func (h *Hub) OrderStatusChanged(order *model.Order, previous model.OrderStatus) {
	h.publish(Event{
		Type:           EventOrderStatusChanged,
		Order:          summarize(order),
		PreviousStatus: previous,
	}, true, order.UserID)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop closes every client and ends Run
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ConnectedCount reports open sockets for one principal
func (h *Hub) ConnectedCount(role string, id uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[principal{role: role, id: id}])
}

// HandleClientMessage answers pings. Messages past the per-second limit are ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.rateMu.Lock()
	now := time.Now()
	if now.Sub(client.lastResetTime) >= time.Second {
		client.messageCount = 0
		client.lastResetTime = now
	}
	client.messageCount++
	count := client.messageCount
	client.rateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("WebSocket rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Debug("Ignoring malformed client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		select {
		case h.broadcast <- delivery{event: []byte(`{"type":"pong"}`), direct: client}:
		default:
		}
	}
}
