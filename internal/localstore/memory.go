package localstore

import (
	"bytes"
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Used when no local store
// path is configured and in tests.
type MemoryStore struct {
	mutex sync.RWMutex
	data  map[Collection]map[string]Entry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Collection]map[string]Entry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, collection Collection, id string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c, ok := s.data[collection]
	if !ok {
		c = make(map[string]Entry)
		s.data[collection] = c
	}
	c[id] = Entry{ID: id, Value: bytes.Clone(value), UpdatedAt: s.now()}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection Collection, id string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(e.Value), nil
}

func (s *MemoryStore) List(_ context.Context, collection Collection) ([]Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries := make([]Entry, 0, len(s.data[collection]))
	for _, e := range s.data[collection] {
		e.Value = bytes.Clone(e.Value)
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection Collection, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, collection Collection) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.data, collection)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, collection Collection) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data[collection]), nil
}

func (s *MemoryStore) Exists(_ context.Context, collection Collection) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data[collection]) > 0, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
