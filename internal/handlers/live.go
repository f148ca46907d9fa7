package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"

	"github.com/mediascribe/video-transcription/internal/hub"
	"github.com/mediascribe/video-transcription/internal/queue"
)

// heartbeatToken is the idle keepalive clients may send at any time.
// It is answered with an echo and never treated as protocol data.
const heartbeatToken = "ping"

// LiveHandler pushes job updates to WebSocket observers
type LiveHandler struct {
	manager *queue.Manager
	hub     *hub.Hub
}

// NewLiveHandler creates a new live update handler
func NewLiveHandler(manager *queue.Manager, h *hub.Hub) *LiveHandler {
	return &LiveHandler{
		manager: manager,
		hub:     h,
	}
}

// Handle serves one observer connection: the current job list first,
// then every job mutation as it happens. All writes go through this
// goroutine; the reader only forwards heartbeats.
func (h *LiveHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	log.Printf("Observer connected (%d total)", h.hub.Count())
	defer log.Println("Observer disconnected")

	for _, snap := range h.manager.ListJobs() {
		if err := c.WriteJSON(snap); err != nil {
			return
		}
	}

	heartbeats := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				return
			}
			if string(message) == heartbeatToken {
				select {
				case heartbeats <- struct{}{}:
				default:
				}
			}
			// Any other client message is ignored.
		}
	}()

	for {
		select {
		case payload, ok := <-sub.C:
			if !ok {
				// Dropped by the hub for falling behind.
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-heartbeats:
			if err := c.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
