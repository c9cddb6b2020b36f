package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Area is in-process shared storage. Each [Area.Open] returns a handle that
// behaves like a separate browser tab on the same storage.
type Area struct {
	mu   sync.RWMutex
	data map[string]string
	subs map[*Subscription]string
}

// NewArea returns an empty [Area].
func NewArea() *Area {
	return &Area{
		data: make(map[string]string),
		subs: make(map[*Subscription]string),
	}
}

// Open returns a new handle with its own origin.
func (a *Area) Open() *MemoryStore {
	return &MemoryStore{area: a, origin: uuid.NewString()}
}

// MemoryStore is a [Store] handle on an [Area].
type MemoryStore struct {
	area   *Area
	origin string

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// NewMemoryStore returns a handle on a fresh private [Area].
func NewMemoryStore() *MemoryStore {
	return NewArea().Open()
}

// Origin implements [Store].
func (m *MemoryStore) Origin() string {
	return m.origin
}

// Get implements [Store].
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if m.isClosed() {
		return "", false, ErrClosed
	}
	m.area.mu.RLock()
	defer m.area.mu.RUnlock()
	v, ok := m.area.data[key]
	return v, ok, nil
}

// Snapshot implements [Store].
func (m *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}
	m.area.mu.RLock()
	defer m.area.mu.RUnlock()
	out := make(Snapshot, len(m.area.data))
	for k, v := range m.area.data {
		out[k] = v
	}
	return out, nil
}

// SetMany implements [Store].
func (m *MemoryStore) SetMany(_ context.Context, values map[string]string) error {
	if m.isClosed() {
		return ErrClosed
	}
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	m.area.mu.Lock()
	for k, v := range values {
		m.area.data[k] = v
		keys = append(keys, k)
	}
	m.area.mu.Unlock()

	m.area.publish(Change{ID: uuid.NewString(), Origin: m.origin, Op: OpSet, Keys: sortedKeys(keys)})
	return nil
}

// Delete implements [Store].
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	if m.isClosed() {
		return ErrClosed
	}
	removed := make([]string, 0, len(keys))
	m.area.mu.Lock()
	for _, k := range keys {
		if _, ok := m.area.data[k]; ok {
			delete(m.area.data, k)
			removed = append(removed, k)
		}
	}
	m.area.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	m.area.publish(Change{ID: uuid.NewString(), Origin: m.origin, Op: OpDelete, Keys: sortedKeys(removed)})
	return nil
}

// Subscribe implements [Store].
func (m *MemoryStore) Subscribe(_ context.Context) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	var sub *Subscription
	sub = newSubscription(func() {
		m.area.mu.Lock()
		delete(m.area.subs, sub)
		m.area.mu.Unlock()

		m.mu.Lock()
		m.subs = removeSubscription(m.subs, sub)
		m.mu.Unlock()
	})

	m.area.mu.Lock()
	m.area.subs[sub] = m.origin
	m.area.mu.Unlock()

	m.subs = append(m.subs, sub)
	return sub, nil
}

// Close implements [Store].
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

func (m *MemoryStore) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset wipes the area and notifies every handle, as if the backing storage
// had been cleared from outside the application.
func (a *Area) Reset() {
	a.mu.Lock()
	a.data = make(map[string]string)
	a.mu.Unlock()
	a.publish(Change{ID: uuid.NewString(), Op: OpReset})
}

func (a *Area) publish(c Change) {
	a.mu.RLock()
	targets := make([]*Subscription, 0, len(a.subs))
	for sub, origin := range a.subs {
		if origin != c.Origin {
			targets = append(targets, sub)
		}
	}
	a.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(c)
	}
}
