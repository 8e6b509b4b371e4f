// Package watch fans read-only session snapshots out to observers.
package watch

import (
	"sync"

	"udp-trivia-service/internal/domain"
)

// Hub delivers snapshots to subscribers. A slow subscriber loses stale
// frames rather than blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan domain.Snapshot]struct{}
	last   domain.Snapshot
	primed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan domain.Snapshot]struct{})}
}

// Publish delivers the snapshot to every subscriber and records it for
// future subscribers.
func (h *Hub) Publish(s domain.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = s
	h.primed = true
	for ch := range h.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}

// Subscribe returns a channel primed with the latest snapshot, if any. The
// caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.primed {
		ch <- h.last
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
