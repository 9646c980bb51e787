package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inboxkit/inboxkit/internal/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeNewMessage  MessageType = "new_message"
	MessageTypeError       MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    MessageType `json:"type"`
	InboxID uint        `json:"inbox_id,omitempty"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewMessagePayload is the notification pushed to subscribers when an
// inbound message lands in an inbox.
type NewMessagePayload struct {
	ID         uint   `json:"id"`
	ThreadID   uint   `json:"thread_id"`
	From       string `json:"from"`
	Subject    string `json:"subject,omitempty"`
	ReceivedAt string `json:"received_at"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbox subscriptions: inboxID -> set of clients
	subscriptions map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	subscribe      chan *subscriptionRequest
	unsubscribeBox chan *subscriptionRequest

	// Broadcast to inbox subscribers
	broadcast chan *broadcastMessage

	stop chan struct{}

	mu sync.RWMutex

	logger *slog.Logger
}

type subscriptionRequest struct {
	client  *Client
	inboxID uint
}

type broadcastMessage struct {
	inboxID uint
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		subscriptions:  make(map[uint]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		subscribe:      make(chan *subscriptionRequest),
		unsubscribeBox: make(chan *subscriptionRequest),
		broadcast:      make(chan *broadcastMessage, 256),
		stop:           make(chan struct{}),
		logger:         logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for inboxID, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, inboxID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered")
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.inboxID] == nil {
				h.subscriptions[req.inboxID] = make(map[*Client]bool)
			}
			h.subscriptions[req.inboxID][req.client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed to inbox", slog.Uint64("inbox_id", uint64(req.inboxID)))
			}

		case req := <-h.unsubscribeBox:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.inboxID]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.inboxID)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unsubscribed from inbox", slog.Uint64("inbox_id", uint64(req.inboxID)))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			subscribers := h.subscriptions[msg.inboxID]
			for client := range subscribers {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()

		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.subscriptions = make(map[uint]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop terminates the hub loop and disconnects all clients.
func (h *Hub) Stop() {
	close(h.stop)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to an inbox
func (h *Hub) Subscribe(client *Client, inboxID uint) {
	h.subscribe <- &subscriptionRequest{client: client, inboxID: inboxID}
}

// Unsubscribe unsubscribes a client from an inbox
func (h *Hub) Unsubscribe(client *Client, inboxID uint) {
	h.unsubscribeBox <- &subscriptionRequest{client: client, inboxID: inboxID}
}

// BroadcastNewMessage pushes an inbound message notification to every
// client subscribed to the inbox. Non-blocking; slow clients miss it.
func (h *Hub) BroadcastNewMessage(inboxID uint, message *models.Message) {
	if message == nil {
		return
	}

	payload := &NewMessagePayload{
		ID:         message.ID,
		ThreadID:   message.ThreadID,
		From:       message.From,
		Subject:    message.Subject,
		ReceivedAt: message.CreatedAt.Format(time.RFC3339),
	}
	msg := WSMessage{
		Type:    MessageTypeNewMessage,
		InboxID: inboxID,
		Message: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	h.broadcast <- &broadcastMessage{
		inboxID: inboxID,
		message: data,
	}
}
