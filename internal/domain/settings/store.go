package settings

import (
	"context"
	"sync"
)

// Store is the single read and change-notification contract for settings
type Store interface {
	Get() Settings
	// Subscribe registers fn for changes; the returned func unsubscribes
	Subscribe(fn func(next, prev Settings)) func()
}

// MemoryStore keeps settings in memory
type MemoryStore struct {
	mu        sync.RWMutex
	current   Settings
	next      int
	listeners map[int]func(next, prev Settings)
}

// NewMemoryStore creates a store holding s, normalised
func NewMemoryStore(s Settings) (*MemoryStore, error) {
	n, err := s.Normalize()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{current: n, listeners: make(map[int]func(next, prev Settings))}, nil
}

// Get returns a copy of the current settings
func (m *MemoryStore) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.current
	s.DisabledSites = append([]string(nil), m.current.DisabledSites...)
	return s
}

// Set replaces the settings and notifies subscribers when anything changed
func (m *MemoryStore) Set(s Settings) error {
	n, err := s.Normalize()
	if err != nil {
		return err
	}

	m.mu.Lock()
	prev := m.current
	if prev.Equal(n) {
		m.mu.Unlock()
		return nil
	}
	m.current = n
	fns := m.snapshotLocked()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(n, prev)
	}
	return nil
}

// Update applies fn to a copy of the current settings and stores the result
func (m *MemoryStore) Update(fn func(*Settings)) error {
	s := m.Get()
	fn(&s)
	return m.Set(s)
}

func (m *MemoryStore) Subscribe(fn func(next, prev Settings)) func() {
	m.mu.Lock()
	key := m.next
	m.next++
	m.listeners[key] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, key)
			m.mu.Unlock()
		})
	}
}

// Credential satisfies the orchestrator's credential source contract
func (m *MemoryStore) Credential(context.Context) (string, error) {
	return m.Get().APIKey, nil
}

func (m *MemoryStore) snapshotLocked() []func(next, prev Settings) {
	fns := make([]func(next, prev Settings), 0, len(m.listeners))
	for i := 0; i < m.next; i++ {
		if fn, ok := m.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
