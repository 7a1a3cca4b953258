package lobby

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 16

// Subscriber receives serialized lobby updates for one /lobbies connection.
// When the buffer overflows the subscriber is marked lagged; it catches up by
// re-sending the current snapshot instead of replaying missed messages, which
// is sound because every update is a full snapshot, not a delta.
type Subscriber struct {
	C      chan []byte
	lagged atomic.Bool
}

// Lagged reports and clears the lag marker.
func (s *Subscriber) Lagged() bool {
	return s.lagged.Swap(false)
}

// Hub fans lobby updates out to all connected subscribers. One publisher (the
// refresh cycle), many subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call at
// most once per subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	h.mu.Unlock()
}

// Publish fans msg out without blocking; a full subscriber buffer drops the
// message and marks the subscriber lagged. Returns how many subscribers
// missed the message. Sends happen under the read lock so Unsubscribe cannot
// close a channel mid-send.
func (h *Hub) Publish(msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for sub := range h.subs {
		select {
		case sub.C <- msg:
		default:
			sub.lagged.Store(true)
			dropped++
		}
	}
	return dropped
}
