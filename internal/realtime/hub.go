package realtime

import (
	"sync"
)

// Hub is the in-process change broadcaster. Subscribers get a bare "something
// changed for this cafeteria" signal and are expected to re-read from the
// order store; the signal carries no payload on purpose.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[*Subscription]struct{})}
}

// Subscription is the unsubscribe handle returned by Subscribe.
type Subscription struct {
	hub         *Hub
	cafeteriaID uint

	mu       sync.Mutex
	closed   bool
	onChange func()
}

// Subscribe registers onChange for every mutation in the cafeteria.
func (h *Hub) Subscribe(cafeteriaID uint, onChange func()) *Subscription {
	sub := &Subscription{
		hub:         h,
		cafeteriaID: cafeteriaID,
		onChange:    onChange,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[cafeteriaID] == nil {
		h.subs[cafeteriaID] = make(map[*Subscription]struct{})
	}
	h.subs[cafeteriaID][sub] = struct{}{}

	return sub
}

// Publish invokes every live subscriber for the cafeteria. Delivery is
// at-least-once from the caller's perspective: a subscriber may see
// duplicates and must treat each signal as "reload".
func (h *Hub) Publish(cafeteriaID uint) {
	h.mu.RLock()
	snapshot := make([]*Subscription, 0, len(h.subs[cafeteriaID]))
	for sub := range h.subs[cafeteriaID] {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		sub.deliver()
	}
}

// deliver runs the callback under the subscription lock so Unsubscribe can
// guarantee nothing fires after it returns.
func (s *Subscription) deliver() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.onChange()
}

// Unsubscribe stops delivery immediately. Safe to call any number of times.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if set := s.hub.subs[s.cafeteriaID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(s.hub.subs, s.cafeteriaID)
		}
	}
}
