// Package watcher forces the console back to the login view when the session
// token disappears from the shared store, for example because another console
// process logged out.
//
// The watcher only checks that a token is present. Expiry is caught by the
// router's guard on the next protected navigation.
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farm2go/adminguard/store"
	"go.uber.org/zap"
)

// ErrNoNavigator is returned by New when nav is nil.
var ErrNoNavigator = errors.New("watcher requires a navigator")

// Navigator is the view state the watcher reads and moves.
type Navigator interface {
	Current() string
	Navigate(path string) error
}

// Observer is told about forced redirects. [adminguard.Engine] implements it.
type Observer interface {
	RecordWatcherRedirect(ctx context.Context, from string)
}

// Config configures a [Watcher].
type Config struct {
	// LoginPath is where a removed session is sent. Default "/login".
	LoginPath string
	Logger    *zap.Logger
	Observer  Observer
}

// Stats tracks watcher activity.
type Stats struct {
	Notifications uint64
	Redirects     uint64
	Errors        uint64
	LastChange    store.Change
	LastEventTime time.Time
}

// Watcher subscribes to a store and redirects on token removal. At most one
// subscription is active per Watcher: Start on a running watcher is a no-op.
type Watcher struct {
	mu      sync.RWMutex
	store   store.Store
	nav     Navigator
	cfg     Config
	logger  *zap.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	stats Stats
}

// New returns a stopped watcher over s.
func New(s store.Store, nav Navigator, cfg Config) (*Watcher, error) {
	if s == nil {
		return nil, store.ErrUnavailable
	}
	if nav == nil {
		return nil, ErrNoNavigator
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		store:  s,
		nav:    nav,
		cfg:    cfg,
		logger: logger.Named("watcher"),
	}, nil
}

// Start subscribes and begins handling notifications in a goroutine. The
// subscription is released when Stop is called or ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	sub, err := w.store.Subscribe(ctx)
	if err != nil {
		return err
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run(ctx, sub, w.stopCh, w.doneCh)

	w.logger.Debug("watching session store", zap.String("origin", w.store.Origin()))
	return nil
}

// Stop ends the subscription and waits for the handler goroutine to exit.
// Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	w.logger.Debug("stopped")
}

// Running reports whether a subscription is active.
func (w *Watcher) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Done returns a channel closed when the latest run ends. It stays closed
// after the run exits and is nil only before the first Start.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.doneCh
}

func (w *Watcher) run(ctx context.Context, sub *store.Subscription, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		_ = sub.Close()
		w.mu.Lock()
		if w.doneCh == doneCh {
			w.running = false
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case c, ok := <-sub.C():
			if !ok {
				w.logger.Debug("subscription closed")
				return
			}
			w.handle(ctx, c)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, c store.Change) {
	w.mu.Lock()
	w.stats.Notifications++
	w.stats.LastChange = c
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()

	tok, ok, err := w.store.Get(ctx, store.KeyToken)
	if err != nil {
		w.countError()
		w.logger.Warn("token re-read failed", zap.Error(err))
		return
	}
	if ok && tok != "" {
		return
	}

	from := w.nav.Current()
	if from == w.cfg.LoginPath {
		return
	}
	if err := w.nav.Navigate(w.cfg.LoginPath); err != nil {
		w.countError()
		w.logger.Warn("redirect to login failed", zap.String("from", from), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.stats.Redirects++
	w.mu.Unlock()

	w.logger.Info("session removed by another process",
		zap.String("from", from),
		zap.Stringer("op", c.Op),
		zap.String("origin", c.Origin),
	)
	if w.cfg.Observer != nil {
		w.cfg.Observer.RecordWatcherRedirect(ctx, from)
	}
}

func (w *Watcher) countError() {
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
}

// Watch runs a watcher until ctx ends.
func Watch(ctx context.Context, s store.Store, nav Navigator, cfg Config) error {
	w, err := New(s, nav, cfg)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return ctx.Err()
}
