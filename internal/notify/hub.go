// Package notify fans job updates out to websocket clients.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/brandlens/brandlens/internal/queue"
)

// Hub manages websocket connections and broadcasts job updates to all of
// them. Clients filter by job id on their side.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Start runs the hub loop in a goroutine.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case client := <-h.register:
				h.mu.Lock()
				h.clients[client] = true
				total := len(h.clients)
				h.mu.Unlock()
				slog.Debug("websocket client connected", "clients", total)
			case client := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()
				}
				remaining := len(h.clients)
				h.mu.Unlock()
				slog.Debug("websocket client disconnected", "clients", remaining)
			case message := <-h.broadcast:
				h.mu.Lock()
				for client := range h.clients {
					if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
						slog.Warn("websocket write failed, dropping client", "error", err)
						client.Close()
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}()
}

// jobUpdateMessage is the wire format for job updates.
type jobUpdateMessage struct {
	Type        string          `json:"type"`
	JobID       string          `json:"jobId"`
	Status      queue.JobStatus `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"currentStep"`
	Error       string          `json:"error,omitempty"`
}

// BroadcastJobUpdate sends a job update to all connected clients.
func (h *Hub) BroadcastJobUpdate(job queue.Job) {
	msg := jobUpdateMessage{
		Type:        "job_update",
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
	}
	if job.Status == queue.JobStatusFailed {
		msg.Error = job.Error
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal job update", "error", err)
		return
	}

	h.broadcast <- data
}

// RegisterClient adds a websocket connection to the hub.
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	h.register <- conn
}

// UnregisterClient removes a websocket connection from the hub.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.unregister <- conn
}
