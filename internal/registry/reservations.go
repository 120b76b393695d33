package registry

import (
	"context"
	"sync"
	"time"
)

// Reservations is an atomic set of keys. Reserve succeeds for exactly one
// caller until the key is released. A held key may be bound to the channel
// it ended up creating; Owner is empty until then.
type Reservations interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Held(ctx context.Context, key string) (bool, error)
	Bind(ctx context.Context, key, owner string) error
	Owner(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key string) error
	// ReleaseOwned frees key only while it is still bound to owner.
	ReleaseOwned(ctx context.Context, key, owner string) (bool, error)
}

type memoryReservations struct {
	mu     sync.Mutex
	now    func() time.Time
	keys   map[string]time.Time
	owners map[string]string
}

// NewMemoryReservations returns a process-local reservation set.
func NewMemoryReservations() Reservations {
	return &memoryReservations{now: time.Now, keys: make(map[string]time.Time), owners: make(map[string]string)}
}

func (m *memoryReservations) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heldLocked(key) {
		return false, nil
	}
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	m.keys[key] = expires
	return true, nil
}

func (m *memoryReservations) Held(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heldLocked(key), nil
}

func (m *memoryReservations) Bind(_ context.Context, key, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heldLocked(key) {
		m.owners[key] = owner
	}
	return nil
}

func (m *memoryReservations) Owner(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.heldLocked(key) {
		return "", false, nil
	}
	return m.owners[key], true, nil
}

func (m *memoryReservations) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	delete(m.owners, key)
	return nil
}

func (m *memoryReservations) ReleaseOwned(_ context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.heldLocked(key) || m.owners[key] != owner {
		return false, nil
	}
	delete(m.keys, key)
	delete(m.owners, key)
	return true, nil
}

func (m *memoryReservations) heldLocked(key string) bool {
	expires, ok := m.keys[key]
	if !ok {
		return false
	}
	if !expires.IsZero() && !m.now().Before(expires) {
		delete(m.keys, key)
		delete(m.owners, key)
		return false
	}
	return true
}
