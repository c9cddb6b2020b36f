package router

import (
	"errors"
	"sync"
)

// ErrNoHistory is returned by Back at the first entry.
var ErrNoHistory = errors.New("no previous view")

// Navigator is the console's notion of the current view.
type Navigator interface {
	Current() string
	Navigate(path string) error
}

// History is an in-memory [Navigator] keeping a back stack. Safe for
// concurrent use.
type History struct {
	mu      sync.Mutex
	entries []string
	changed chan struct{}
}

// NewHistory starts at start.
func NewHistory(start string) *History {
	return &History{
		entries: []string{Normalize(start)},
		changed: make(chan struct{}),
	}
}

// Current returns the view on top of the stack.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Navigate pushes path. Navigating to the current view is a no-op.
func (h *History) Navigate(path string) error {
	path = Normalize(path)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entries[len(h.entries)-1] == path {
		return nil
	}
	h.entries = append(h.entries, path)
	h.notifyLocked()
	return nil
}

// Back pops the current view.
func (h *History) Back() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return h.entries[0], ErrNoHistory
	}
	h.entries = h.entries[:len(h.entries)-1]
	h.notifyLocked()
	return h.entries[len(h.entries)-1], nil
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Changed returns a channel closed at the next change of the current view.
func (h *History) Changed() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changed
}

func (h *History) notifyLocked() {
	close(h.changed)
	h.changed = make(chan struct{})
}
