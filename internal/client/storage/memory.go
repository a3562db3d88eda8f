package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is in-process backing data shared by several Store handles, each of
// which plays the role of one execution context (one "tab").
type Hub struct {
	mu      sync.Mutex
	data    map[string][]byte
	members map[*memoryStore]struct{}
}

func NewHub() *Hub {
	return &Hub{
		data:    make(map[string][]byte),
		members: make(map[*memoryStore]struct{}),
	}
}

// Open returns a new execution context on the hub.
func (h *Hub) Open() Store {
	s := &memoryStore{hub: h, origin: uuid.NewString(), feed: newFeed()}
	h.mu.Lock()
	h.members[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) broadcast(from *memoryStore, changes []Change) {
	for m := range h.members {
		if m == from {
			continue
		}
		for _, c := range changes {
			m.feed.publish(c)
		}
	}
}

type memoryStore struct {
	hub    *Hub
	origin string
	feed   *feed
	closed bool
}

func (s *memoryStore) Origin() string { return s.origin }

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.hub.data[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.hub.data[key] = bytes.Clone(value)
	s.hub.broadcast(s, []Change{{Key: key, Origin: s.origin}})
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, keys ...string) error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	var changes []Change
	for _, k := range keys {
		if _, ok := s.hub.data[k]; !ok {
			continue
		}
		delete(s.hub.data, k)
		changes = append(changes, Change{Key: k, Removed: true, Origin: s.origin})
	}
	s.hub.broadcast(s, changes)
	return nil
}

func (s *memoryStore) Subscribe() (<-chan Change, func()) {
	return s.feed.subscribe()
}

func (s *memoryStore) Close() error {
	s.hub.mu.Lock()
	if s.closed {
		s.hub.mu.Unlock()
		return nil
	}
	s.closed = true
	delete(s.hub.members, s)
	s.hub.mu.Unlock()

	s.feed.closeAll()
	return nil
}
