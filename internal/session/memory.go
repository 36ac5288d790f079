package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store.  Sessions expire ttl after their
// last write.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry
}

type memoryEntry struct {
	sess    *Session
	expires time.Time
}

// NewMemoryStore returns an empty store.  A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, data: map[string]memoryEntry{}}
}

// WithClock replaces the time source.  Used in tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(s)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.sess.clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	work := e.sess.clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	m.put(work)
	return work.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.lookup(id); err != nil {
		return err
	}
	delete(m.data, id)
	return nil
}

// Len reports live sessions, purging expired ones.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.data {
		if m.expired(e, now) {
			delete(m.data, id)
		}
	}
	return len(m.data)
}

func (m *MemoryStore) put(s *Session) {
	var exp time.Time
	if m.ttl > 0 {
		exp = m.now().Add(m.ttl)
	}
	m.data[s.ID] = memoryEntry{sess: s.clone(), expires: exp}
}

func (m *MemoryStore) lookup(id string) (memoryEntry, error) {
	e, ok := m.data[id]
	if !ok {
		return memoryEntry{}, ErrSessionNotFound
	}
	if m.expired(e, m.now()) {
		delete(m.data, id)
		return memoryEntry{}, ErrSessionNotFound
	}
	return e, nil
}

func (m *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}
