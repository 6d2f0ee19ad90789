package store

import (
	"context"
	"sync"

	"github.com/mkearny/draft-battle-backend/internal/engine"
)

type memoryEntry struct {
	mu   sync.Mutex
	sess engine.Session
}

// MemoryStore keeps sessions in process memory with a per-code mutex.
// Used in tests and as a fallback when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memoryEntry)}
}

func (m *MemoryStore) Create(ctx context.Context, s engine.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.GameCode]; ok {
		return ErrCodeTaken
	}
	m.sessions[s.GameCode] = &memoryEntry{sess: s.Clone()}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, code string) (engine.Session, error) {
	m.mu.RLock()
	e := m.sessions[code]
	m.mu.RUnlock()
	if e == nil {
		return engine.Session{}, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone(), nil
}

func (m *MemoryStore) Apply(ctx context.Context, code string, fn func(engine.Session) (engine.Session, error)) (engine.Session, error) {
	m.mu.RLock()
	e := m.sessions[code]
	m.mu.RUnlock()
	if e == nil {
		return engine.Session{}, ErrNotFound
	}

	// The entry mutex is what linearizes mutations for one code.
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.sess.Clone())
	if err != nil {
		return engine.Session{}, err
	}
	e.sess = next
	return next.Clone(), nil
}
