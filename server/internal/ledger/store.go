package ledger

import (
	"context"
	"sync"

	"video-coords/server/internal/models"
)

// Store persists ledgers beyond the lifetime of the in-memory component.
type Store interface {
	// Mount binds id to a source. If the stored ledger belongs to the same
	// source its events are returned; otherwise it is discarded and an empty
	// ledger is started.
	Mount(ctx context.Context, id Identity, sourceDigest string) ([]models.ClickEvent, error)

	// Append writes the seq-th event of id.
	Append(ctx context.Context, id Identity, seq int, e models.ClickEvent) error

	// Delete removes everything stored for id.
	Delete(ctx context.Context, id Identity) error
}

type memoryLedger struct {
	digest string
	events []models.ClickEvent
}

// MemoryStore keeps ledgers in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	ledgers map[Identity]*memoryLedger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[Identity]*memoryLedger)}
}

func (s *MemoryStore) Mount(_ context.Context, id Identity, sourceDigest string) ([]models.ClickEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[id]
	if !ok || l.digest != sourceDigest {
		s.ledgers[id] = &memoryLedger{digest: sourceDigest}
		return nil, nil
	}
	return New(l.events).Snapshot(), nil
}

func (s *MemoryStore) Append(_ context.Context, id Identity, seq int, e models.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[id]
	if !ok {
		return &SequenceError{ID: id, Want: 0, Got: seq, Unmounted: true}
	}
	if seq != len(l.events) {
		return &SequenceError{ID: id, Want: len(l.events), Got: seq}
	}
	l.events = append(l.events, e.Clone())
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ledgers, id)
	return nil
}
