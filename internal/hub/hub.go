package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// subscriberBuffer is how many pending payloads an observer may lag
// behind before it is considered dead and dropped.
const subscriberBuffer = 64

// Subscriber receives serialized job snapshots on C until it is
// unsubscribed, at which point C is closed.
type Subscriber struct {
	C      chan []byte
	closed bool // guarded by the hub mutex
}

// Hub fans job-state updates out to every connected observer. A
// failure to deliver to one observer never blocks the publisher or
// delivery to the others.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new observer and returns its subscription.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{C: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes an observer. Unsubscribing an observer that was
// already removed is a no-op.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	h.removeLocked(s)
	h.mu.Unlock()
}

// Publish serializes v once and delivers it to every subscriber. A
// subscriber whose buffer is full has stopped draining and is dropped
// instead of stalling the publish.
func (h *Hub) Publish(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Hub: failed to serialize update: %v", err)
		return
	}

	h.mu.Lock()
	for s := range h.subs {
		select {
		case s.C <- payload:
		default:
			log.Printf("Hub: dropping stalled observer")
			h.removeLocked(s)
		}
	}
	h.mu.Unlock()
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// removeLocked deletes and closes a subscription exactly once. Callers
// must hold the hub mutex.
func (h *Hub) removeLocked(s *Subscriber) {
	if s.closed {
		return
	}
	delete(h.subs, s)
	s.closed = true
	close(s.C)
}
