package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Event types pushed over the notification stream. The payload is the DTO the
// REST endpoints would have returned for the same entity.
const (
	EventInvitationReceived = "invitation.received"
	EventInvitationAnswered = "invitation.answered"
	EventGameMove           = "game.move"
	EventGameOver           = "game.over"
)

// Message defines the shape of one real-time event.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Broker is the central hub for managing SSE client connections. Each
// connected user gets one buffered channel; notifications are best-effort and
// never block the request that produced them.
type Broker struct {
	clients map[int64]chan []byte
	mu      sync.RWMutex
}

// NewBroker creates a new Broker instance.
func NewBroker() *Broker {
	return &Broker{
		clients: make(map[int64]chan []byte),
	}
}

// AddClient registers a user's connection with the broker. A second
// connection for the same user (another tab) replaces the first; the old
// channel is closed so its stream handler returns immediately.
func (b *Broker) AddClient(userID int64) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.clients[userID]; ok {
		close(old)
	}

	ch := make(chan []byte, 10)
	b.clients[userID] = ch
	log.Printf("INFO: SSE client connected for user %d", userID)
	return ch
}

// RemoveClient unregisters a client from the broker. The caller passes its
// own channel: if the user has since reconnected, the registration belongs to
// the newer stream and is left alone.
func (b *Broker) RemoveClient(userID int64, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.clients[userID]; ok && current == ch {
		delete(b.clients, userID)
		close(current)
		log.Printf("INFO: SSE client disconnected for user %d", userID)
	}
}

// NotifyUser sends a message to a specific user if they are connected.
// Disconnected users simply miss the event; the REST API remains the source
// of truth.
func (b *Broker) NotifyUser(userID int64, message Message) {
	b.mu.RLock()
	clientChan, ok := b.clients[userID]
	b.mu.RUnlock()

	if !ok {
		return
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("ERROR: could not marshal SSE message for user %d: %v", userID, err)
		return
	}

	// Non-blocking send: a slow consumer drops events rather than stalling
	// the handler that triggered the notification.
	select {
	case clientChan <- jsonMsg:
	default:
		log.Printf("WARN: SSE channel for user %d is full, dropping message", userID)
	}
}
