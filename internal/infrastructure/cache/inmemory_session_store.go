package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/google/uuid"
)

type sessionEntry struct {
	session   allocation.Session
	expiresAt time.Time
}

// InMemorySessionStore implements allocation.SessionStore with a map.
// Sessions are not shared across process instances.
type InMemorySessionStore struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]sessionEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySessionStore creates the store and starts its expiry sweeper
func NewInMemorySessionStore() *InMemorySessionStore {
	store := &InMemorySessionStore{
		entries:  make(map[uuid.UUID]sessionEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(time.Minute)

	return store
}

// Get returns a copy of the stored session
func (s *InMemorySessionStore) Get(_ context.Context, id uuid.UUID) (*allocation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, allocation.ErrSessionNotFound
	}
	session := e.session.Clone()
	return &session, nil
}

// Put replaces the stored session and resets its TTL
func (s *InMemorySessionStore) Put(_ context.Context, session allocation.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[session.ID] = sessionEntry{
		session:   session.Clone(),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a session
func (s *InMemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

// Ping always succeeds
func (s *InMemorySessionStore) Ping(context.Context) error {
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemorySessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries, expired ones included until swept
func (s *InMemorySessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemorySessionStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemorySessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Ensure InMemorySessionStore implements SessionStore
var _ SessionStore = (*InMemorySessionStore)(nil)
