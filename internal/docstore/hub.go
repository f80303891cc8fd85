package docstore

import "sync"

// Hub fans collection snapshots out to live subscribers. Store
// implementations publish a fresh snapshot after every mutation; the hub
// guarantees that once a subscription's cancel function returns, its callback
// never fires again, even if a publish is in flight on another goroutine.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]*subscription
	next int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]*subscription)}
}

// subscription serializes deliveries so cancellation can wait out an
// in-flight callback before declaring the subscription dead.
type subscription struct {
	mu     sync.Mutex
	closed bool
	fn     SnapshotFunc
}

func (s *subscription) deliver(snap Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(snap, err)
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Subscribe registers fn for a collection and returns its cancel function.
func (h *Hub) Subscribe(collection string, fn SnapshotFunc) CancelFunc {
	sub := &subscription{fn: fn}

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]*subscription)
	}
	h.subs[collection][id] = sub
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs[collection], id)
		h.mu.Unlock()
		sub.close()
	}
}

// Publish delivers a snapshot to every live subscriber of a collection.
func (h *Hub) Publish(collection string, snap Snapshot) {
	h.broadcast(collection, snap, nil)
}

// PublishError surfaces a broken subscription to every live subscriber. The
// previous snapshot stays the last known good state on the consumer side.
func (h *Hub) PublishError(collection string, err error) {
	h.broadcast(collection, nil, err)
}

func (h *Hub) broadcast(collection string, snap Snapshot, err error) {
	h.mu.Lock()
	targets := make([]*subscription, 0, len(h.subs[collection]))
	for _, sub := range h.subs[collection] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(snap, err)
	}
}
