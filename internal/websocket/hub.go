package websocket

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hellavor/careers-api/internal/metrics"
	"github.com/hellavor/careers-api/internal/models"
)

// broadcastBuffer bounds how many events may queue before new ones are dropped.
const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every client.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Closed when Run returns.
	stopped chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		stopped:    make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns when ctx is done,
// closing every remaining client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return nil
		case client := <-h.Register:
			h.clients[client] = true
			metrics.SetLiveClients(len(h.clients))
			log.Info().Str("admin", client.Username).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("admin", client.Username).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					log.Warn().Str("admin", client.Username).Msg("Dropping slow websocket client")
					h.drop(client)
				}
			}
		}
	}
}

// Join registers client. It reports false when the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

// Leave unregisters client. It returns immediately once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stopped:
	}
}

// Send is closed by the hub goroutine only; clients never write to it.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	metrics.SetLiveClients(len(h.clients))
}

// ApplicationCreated queues an application.created event. It never blocks:
// when the queue is full the event is discarded.
func (h *Hub) ApplicationCreated(app models.JobApplication) {
	msg, err := NewApplicationCreatedMessage(app)
	if err != nil {
		log.Error().Err(err).Str("application_id", app.ID).Msg("Failed to encode application event")
		return
	}

	select {
	case h.Broadcast <- msg:
	default:
		log.Warn().Str("application_id", app.ID).Msg("Live feed queue full, event dropped")
	}
}
