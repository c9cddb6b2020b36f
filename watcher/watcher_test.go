package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/farm2go/adminguard"
	"github.com/farm2go/adminguard/router"
	"github.com/farm2go/adminguard/store"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func signedIn(t *testing.T, s store.Store) {
	t.Helper()
	err := store.SaveSession(context.Background(), s, store.Credentials{
		Token:       "a.b.c",
		Username:    "ada",
		Roles:       "[]",
		Permissions: "[]",
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
}

type recorder struct {
	mu    sync.Mutex
	froms []string
}

func (r *recorder) RecordWatcherRedirect(_ context.Context, from string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.froms = append(r.froms, from)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.froms...)
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New(nil, router.NewHistory("/"), Config{}); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	s := store.NewMemoryStore()
	defer s.Close()
	if _, err := New(s, nil, Config{}); !errors.Is(err, ErrNoNavigator) {
		t.Fatalf("expected ErrNoNavigator, got %v", err)
	}
}

func TestLogoutInOtherProcessRedirects(t *testing.T) {
	area := store.NewArea()
	tabA, tabB := area.Open(), area.Open()
	defer tabA.Close()
	defer tabB.Close()
	signedIn(t, tabA)

	nav := router.NewHistory("/users")
	rec := &recorder{}
	w, err := New(tabA, nav, Config{Observer: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	changed := nav.Changed()
	if err := store.ClearSession(context.Background(), tabB); err != nil {
		t.Fatalf("clear: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no redirect after external logout")
	}
	if got := nav.Current(); got != "/login" {
		t.Fatalf("expected /login, got %q", got)
	}
	waitFor(t, "observer", func() bool { return len(rec.seen()) == 1 })
	if got := rec.seen()[0]; got != "/users" {
		t.Fatalf("expected redirect from /users, got %q", got)
	}
	if st := w.Stats(); st.Redirects != 1 || st.Notifications == 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestUnrelatedChangeDoesNotRedirect(t *testing.T) {
	area := store.NewArea()
	tabA, tabB := area.Open(), area.Open()
	defer tabA.Close()
	defer tabB.Close()
	signedIn(t, tabA)

	nav := router.NewHistory("/products")
	w, _ := New(tabA, nav, Config{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := tabB.SetMany(context.Background(), map[string]string{store.KeyUsername: "grace"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	waitFor(t, "notification", func() bool { return w.Stats().Notifications == 1 })
	if got := nav.Current(); got != "/products" {
		t.Fatalf("expected to stay on /products, got %q", got)
	}
}

func TestAlreadyOnLoginDoesNotNavigate(t *testing.T) {
	area := store.NewArea()
	tabA := area.Open()
	defer tabA.Close()
	signedIn(t, tabA)

	nav := router.NewHistory("/login")
	rec := &recorder{}
	w, _ := New(tabA, nav, Config{Observer: rec})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	area.Reset()
	waitFor(t, "notification", func() bool { return w.Stats().Notifications == 1 })
	if len(nav.Entries()) != 1 || len(rec.seen()) != 0 {
		t.Fatalf("expected no navigation, entries=%v redirects=%v", nav.Entries(), rec.seen())
	}
}

func TestExternalResetRedirects(t *testing.T) {
	area := store.NewArea()
	tab := area.Open()
	defer tab.Close()
	signedIn(t, tab)

	nav := router.NewHistory("/dashboard")
	w, _ := New(tab, nav, Config{LoginPath: "/signin"})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	area.Reset()
	waitFor(t, "redirect", func() bool { return nav.Current() == "/signin" })
}

func TestStartIsSingleInstance(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	w, _ := New(s, router.NewHistory("/"), Config{})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := w.Done()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if w.Done() != first {
		t.Fatal("second Start replaced the running subscription")
	}

	w.Stop()
	w.Stop()
	if w.Running() {
		t.Fatal("still running after Stop")
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	w.Stop()
}

func TestContextCancelReleasesSubscription(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	w, _ := New(s, router.NewHistory("/"), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := w.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit on cancel")
	}
	waitFor(t, "stopped", func() bool { return !w.Running() })
	w.Stop()
}

func TestClosedStoreEndsWatcher(t *testing.T) {
	s := store.NewMemoryStore()
	w, _ := New(s, router.NewHistory("/"), Config{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := w.Done()
	_ = s.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit when the store closed")
	}
	w.Stop()
}

func TestDoneStaysClosedAfterRunExits(t *testing.T) {
	s := store.NewMemoryStore()
	w, _ := New(s, router.NewHistory("/"), Config{})
	if w.Done() != nil {
		t.Fatal("Done before Start must be nil")
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = s.Close()
	waitFor(t, "stopped", func() bool { return !w.Running() })

	done := w.Done()
	if done == nil {
		t.Fatal("Done returned nil after the run exited")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after the run exited")
	}
}

func TestWatchReturnsWhenStoreCloses(t *testing.T) {
	s := store.NewMemoryStore()

	errCh := make(chan error, 1)
	go func() { errCh <- Watch(context.Background(), s, router.NewHistory("/"), Config{}) }()
	_ = s.Close()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, store.ErrClosed) {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after the store closed")
	}
}

func TestWatchReturnsOnCancel(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Watch(ctx, s, router.NewHistory("/"), Config{}) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return")
	}
}

func TestEngineRecordsWatcherRedirect(t *testing.T) {
	area := store.NewArea()
	tabA, tabB := area.Open(), area.Open()
	defer tabA.Close()
	defer tabB.Close()
	signedIn(t, tabA)

	engine, err := adminguard.New().
		WithStore(tabA).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	nav := router.NewHistory("/roles")
	w, _ := New(tabA, nav, Config{LoginPath: engine.LoginPath(), Observer: engine})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := store.ClearSession(context.Background(), tabB); err != nil {
		t.Fatalf("clear: %v", err)
	}
	waitFor(t, "metric", func() bool {
		return engine.MetricsSnapshot().Counters[adminguard.MetricWatcherRedirect] == 1
	})
}

func TestFileStoreLogoutFromOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	console, err := store.NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer console.Close()
	other, err := store.NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer other.Close()
	signedIn(t, console)

	nav := router.NewHistory("/farmers")
	w, _ := New(console, nav, Config{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := store.ClearSession(context.Background(), other); err != nil {
		t.Fatalf("clear: %v", err)
	}
	waitFor(t, "redirect", func() bool { return nav.Current() == "/login" })
}
