// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Holds running game sessions for the HTTP layer.
//
// Characteristics:
//   - Stores *session.Controller values keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; nothing here is persisted.
//   - Sessions idle for longer than a TTL are dropped by Sweep.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/jeopardy/internal/session"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines where running sessions live.
type Store interface {
	// Save adds or replaces a session under id.
	Save(ctx context.Context, id string, s *session.Controller) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session is not found.
	Get(ctx context.Context, id string) (*session.Controller, error)

	// Delete removes a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports how many sessions are held.
	Len() int
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu       sync.RWMutex                   // guards sessions
	sessions map[string]*session.Controller // keyed by session ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*session.Controller)}
}

// Save adds or updates the session in the map.
func (m *Memory) Save(ctx context.Context, id string, s *session.Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return nil
}

// Get looks up a session by ID.
func (m *Memory) Get(ctx context.Context, id string) (*session.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// Delete removes the session from the map.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions that are not loading and have been idle for longer
// than ttl as of now. Returns the removed IDs.
func (m *Memory) Sweep(now time.Time, ttl time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for id, s := range m.sessions {
		if s.State() == session.StateLoading {
			continue
		}
		if now.Sub(s.LastActive()) > ttl {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}
