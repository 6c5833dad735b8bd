// Package emitter republishes a component's full click list to the host every
// time the ledger grows.
//
// Every emission carries the whole ordered list, so a subscriber that falls
// behind only ever needs the newest one. Each subscriber channel holds a single
// snapshot and a pending one is replaced rather than queued; Emit never blocks.
package emitter

import (
	"sync"
	"sync/atomic"

	"video-coords/server/internal/ledger"
	"video-coords/server/internal/models"

	"go.uber.org/zap"
)

// Emitter is the boundary the click handler publishes through.
type Emitter interface {
	Emit(id ledger.Identity, clicks []models.ClickEvent)
	Close(id ledger.Identity)
}

// Stats counts emissions since the hub was created.
type Stats struct {
	Emitted     uint64
	Delivered   uint64
	Replaced    uint64
	Subscribers int
}

type subscriber struct {
	ch chan []models.ClickEvent
}

// Hub fans emissions out to per-identity subscribers.
type Hub struct {
	log  *zap.Logger
	mu   sync.Mutex
	subs map[ledger.Identity]map[uint64]*subscriber
	next uint64

	emitted   atomic.Uint64
	delivered atomic.Uint64
	replaced  atomic.Uint64
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[ledger.Identity]map[uint64]*subscriber),
	}
}

// Subscribe returns a channel of click lists for id and a function that ends
// the subscription. The channel is closed when either is called or the
// identity is torn down.
func (h *Hub) Subscribe(id ledger.Identity) (<-chan []models.ClickEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	n := h.next
	s := &subscriber{ch: make(chan []models.ClickEvent, 1)}
	if h.subs[id] == nil {
		h.subs[id] = make(map[uint64]*subscriber)
	}
	h.subs[id][n] = s

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[id]; ok {
				if _, ok := set[n]; ok {
					delete(set, n)
					close(s.ch)
				}
				if len(set) == 0 {
					delete(h.subs, id)
				}
			}
		})
	}
	return s.ch, cancel
}

// Emit hands clicks to every subscriber of id.
func (h *Hub) Emit(id ledger.Identity, clicks []models.ClickEvent) {
	h.emitted.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs[id] {
		snapshot := copyClicks(clicks)
		select {
		case s.ch <- snapshot:
		default:
			// Drop the stale pending list, then deliver the newer one.
			select {
			case <-s.ch:
				h.replaced.Add(1)
			default:
			}
			s.ch <- snapshot
		}
		h.delivered.Add(1)
	}

	if h.log != nil {
		h.log.Debug("Clicks emitted", zap.Stringer("component", id), zap.Int("clicks", len(clicks)))
	}
}

// Close ends all subscriptions of id.
func (h *Hub) Close(id ledger.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs[id] {
		close(s.ch)
	}
	delete(h.subs, id)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	h.mu.Unlock()

	return Stats{
		Emitted:     h.emitted.Load(),
		Delivered:   h.delivered.Load(),
		Replaced:    h.replaced.Load(),
		Subscribers: n,
	}
}

func copyClicks(clicks []models.ClickEvent) []models.ClickEvent {
	out := make([]models.ClickEvent, len(clicks))
	for i, c := range clicks {
		out[i] = c.Clone()
	}
	return out
}
