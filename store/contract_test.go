package store

import (
	"context"
	"testing"
	"time"
)

// pairFactory returns two handles on the same backing storage, standing in
// for two browser tabs.
type pairFactory func(t *testing.T) (Store, Store)

func runStoreContract(t *testing.T, open pairFactory) {
	t.Run("SessionRoundTrip", func(t *testing.T) {
		a, _ := open(t)
		ctx := context.Background()

		if err := SaveSession(ctx, a, Credentials{Token: "t", Username: "alice", Roles: `["admin"]`, Permissions: `["READ_USER"]`}); err != nil {
			t.Fatalf("save session: %v", err)
		}
		snap, err := a.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		for _, k := range SessionKeys() {
			if _, ok := snap.Get(k); !ok {
				t.Fatalf("expected key %q in snapshot", k)
			}
		}

		if err := ClearSession(ctx, a); err != nil {
			t.Fatalf("clear session: %v", err)
		}
		if _, ok, err := a.Get(ctx, KeyToken); err != nil || ok {
			t.Fatalf("expected token removed, ok=%v err=%v", ok, err)
		}
		if err := ClearSession(ctx, a); err != nil {
			t.Fatalf("second clear must be a no-op: %v", err)
		}
	})

	t.Run("OtherHandleSeesWrites", func(t *testing.T) {
		a, b := open(t)
		ctx := context.Background()

		if err := a.SetMany(ctx, map[string]string{KeyUsername: "alice"}); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, ok, err := b.Get(ctx, KeyUsername)
		if err != nil || !ok || v != "alice" {
			t.Fatalf("b.Get = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("NotifiesOtherOriginsOnly", func(t *testing.T) {
		a, b := open(t)
		ctx := context.Background()

		subA, err := a.Subscribe(ctx)
		if err != nil {
			t.Fatalf("subscribe a: %v", err)
		}
		defer subA.Close()
		subB, err := b.Subscribe(ctx)
		if err != nil {
			t.Fatalf("subscribe b: %v", err)
		}
		defer subB.Close()

		if err := a.SetMany(ctx, map[string]string{KeyToken: "x"}); err != nil {
			t.Fatalf("set: %v", err)
		}
		c := waitChange(t, subB)
		if c.Op != OpSet || !c.Touches(KeyToken) || c.Origin != a.Origin() {
			t.Fatalf("unexpected change %+v", c)
		}

		if err := a.Delete(ctx, KeyToken); err != nil {
			t.Fatalf("delete: %v", err)
		}
		c = waitChange(t, subB)
		if c.Op != OpDelete || !c.Touches(KeyToken) {
			t.Fatalf("unexpected change %+v", c)
		}

		select {
		case c := <-subA.C():
			t.Fatalf("writer must not be notified of its own change: %+v", c)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("ClosedSubscriptionClosesChannel", func(t *testing.T) {
		a, _ := open(t)
		sub, err := a.Subscribe(context.Background())
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		if err := sub.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if err := sub.Close(); err != nil {
			t.Fatalf("second close: %v", err)
		}
		if _, ok := <-sub.C(); ok {
			t.Fatal("expected closed channel")
		}
	})

	t.Run("ClosedSubscriptionsAreReleased", func(t *testing.T) {
		a, _ := open(t)
		ctx := context.Background()
		for i := 0; i < 50; i++ {
			sub, err := a.Subscribe(ctx)
			if err != nil {
				t.Fatalf("subscribe %d: %v", i, err)
			}
			if err := sub.Close(); err != nil {
				t.Fatalf("close %d: %v", i, err)
			}
		}
		if n := retainedSubscriptions(a); n != 0 {
			t.Fatalf("handle retains %d closed subscriptions", n)
		}

		kept, err := a.Subscribe(ctx)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		defer kept.Close()
		if n := retainedSubscriptions(a); n != 1 {
			t.Fatalf("retained = %d, want 1", n)
		}
	})

	t.Run("ClosedHandleRejectsUse", func(t *testing.T) {
		a, _ := open(t)
		sub, err := a.Subscribe(context.Background())
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		if err := a.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if _, ok := <-sub.C(); ok {
			t.Fatal("closing the handle must end its subscriptions")
		}
		if _, _, err := a.Get(context.Background(), KeyToken); err != ErrClosed {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	})
}

func retainedSubscriptions(s Store) int {
	switch h := s.(type) {
	case *MemoryStore:
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.subs)
	case *FileStore:
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.subs)
	case *RedisStore:
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.subs)
	default:
		panic("unknown store type")
	}
}

func waitChange(t *testing.T, sub *Subscription) Change {
	t.Helper()
	select {
	case c, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
	return Change{}
}
