package services

import (
	"sync"
)

// NotificationEvent is the payload pushed to connected dashboard clients.
type NotificationEvent struct {
	ID           uint   `json:"id"`
	Recipient    string `json:"recipient"`
	Type         string `json:"type"`
	Message      string `json:"message"`
	ProjectID    uint   `json:"project_id"`
	SubProjectID uint   `json:"sub_project_id"`
	Sender       string `json:"sender"`
	Time         string `json:"time"`
}

// SSEHub manages SSE client connections and event broadcasting.
type SSEHub struct {
	clients map[string]chan NotificationEvent
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan NotificationEvent),
	}
}

// Subscribe registers a client and returns its event channel.
func (h *SSEHub) Subscribe(clientID string) <-chan NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffered so one slow client never blocks a publish
	ch := make(chan NotificationEvent, 100)
	h.clients[clientID] = ch
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event to all connected clients. Full client buffers
// drop the event rather than block.
func (h *SSEHub) Publish(event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var (
	globalSSEHub *SSEHub
	sseHubOnce   sync.Once
)

// GetSSEHub returns the global SSE hub singleton.
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
