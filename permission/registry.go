package permission

import (
	"errors"
	"strings"
	"sync"
)

// Registry is the catalog of permission codes known to the application.
// Menus and routes may only require registered codes.
//
// A Registry is filled during initialization and then frozen; lookups are
// safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codes  map[string]int
	order  []string
	frozen bool
}

// NewRegistry creates an empty, unfrozen [Registry].
func NewRegistry() *Registry {
	return &Registry{
		codes: make(map[string]int),
	}
}

// Register adds code to the catalog and returns its declaration index.
// Must be called before [Registry.Freeze].
func (r *Registry) Register(code string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, errors.New("registry frozen")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return -1, errors.New("permission code cannot be empty")
	}

	if _, exists := r.codes[code]; exists {
		return -1, errors.New("permission already registered: " + code)
	}

	idx := len(r.order)
	r.codes[code] = idx
	r.order = append(r.order, code)

	return idx, nil
}

// Known reports whether code has been registered.
func (r *Registry) Known(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.codes[code]
	return ok
}

// Unknown returns the codes of s that are not registered, in ascending order.
func (r *Registry) Unknown(s Set) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, c := range s.Codes() {
		if _, ok := r.codes[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Codes returns the registered codes in declaration order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether [Registry.Freeze] has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Count returns the number of registered codes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
