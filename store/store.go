package store

import (
	"context"
	"errors"
	"sync"
)

// Session keys.
const (
	KeyToken       = "token"
	KeyUsername    = "username"
	KeyRoles       = "roles"
	KeyPermissions = "permissions"
)

// SessionKeys returns the four keys that make up a stored session.
func SessionKeys() []string {
	return []string{KeyToken, KeyUsername, KeyRoles, KeyPermissions}
}

var (
	// ErrUnavailable wraps backend failures (I/O, network, decode of the backing file).
	ErrUnavailable = errors.New("session store unavailable")
	// ErrClosed is returned by operations on a closed handle.
	ErrClosed = errors.New("session store closed")
)

// Store is the session storage capability shared by the guard components.
type Store interface {
	// Origin identifies this handle in change notifications.
	Origin() string
	// Get returns the value for key and whether it is present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Snapshot returns a consistent copy of every stored entry.
	Snapshot(ctx context.Context) (Snapshot, error)
	// SetMany writes all values in one operation.
	SetMany(ctx context.Context, values map[string]string) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Subscribe reports changes made through other handles until the
	// subscription or the handle is closed.
	Subscribe(ctx context.Context) (*Subscription, error)
	// Close releases the handle and ends its subscriptions.
	Close() error
}

// Snapshot is a read-only copy of stored entries.
type Snapshot map[string]string

// Get returns the value for key and whether it is present.
func (s Snapshot) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Credentials is the value set written on a successful login.
type Credentials struct {
	Token       string
	Username    string
	Roles       string
	Permissions string
}

// SaveSession writes all four session keys in one operation.
func SaveSession(ctx context.Context, s Store, c Credentials) error {
	return s.SetMany(ctx, map[string]string{
		KeyToken:       c.Token,
		KeyUsername:    c.Username,
		KeyRoles:       c.Roles,
		KeyPermissions: c.Permissions,
	})
}

// ClearSession removes all four session keys.
func ClearSession(ctx context.Context, s Store) error {
	return s.Delete(ctx, SessionKeys()...)
}

// Op is the kind of mutation reported in a [Change].
type Op uint8

const (
	// OpSet reports written keys.
	OpSet Op = iota + 1
	// OpDelete reports removed keys.
	OpDelete
	// OpReset reports that the whole backing storage was replaced or removed.
	OpReset
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	case OpReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change describes a mutation made through another handle.
type Change struct {
	ID     string   `json:"id"`
	Origin string   `json:"origin"`
	Op     Op       `json:"op"`
	Keys   []string `json:"keys,omitempty"`
}

// Touches reports whether the change may have affected key. A reset touches
// every key.
func (c Change) Touches(key string) bool {
	if c.Op == OpReset {
		return true
	}
	for _, k := range c.Keys {
		if k == key {
			return true
		}
	}
	return false
}

const subscriptionBuffer = 16

// Subscription delivers [Change] notifications. Close must be called to
// release it; closing twice is safe.
type Subscription struct {
	ch        chan Change
	stop      func()
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
	dropped   uint64
}

func newSubscription(stop func()) *Subscription {
	return &Subscription{
		ch:   make(chan Change, subscriptionBuffer),
		stop: stop,
	}
}

// removeSubscription drops sub from subs, keeping the order of the rest.
func removeSubscription(subs []*Subscription, sub *Subscription) []*Subscription {
	for i, s := range subs {
		if s == sub {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

// C returns the notification channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Close ends the subscription and closes [Subscription.C].
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
	return nil
}

// Dropped returns how many notifications were discarded because the
// subscriber fell behind.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// deliver never blocks; a full buffer drops the change.
func (s *Subscription) deliver(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- c:
	default:
		s.dropped++
	}
}
