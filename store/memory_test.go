package store

import (
	"context"
	"testing"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) (Store, Store) {
		area := NewArea()
		a, b := area.Open(), area.Open()
		t.Cleanup(func() {
			_ = a.Close()
			_ = b.Close()
		})
		return a, b
	})
}

func TestAreaResetNotifiesEveryHandle(t *testing.T) {
	area := NewArea()
	a := area.Open()
	defer a.Close()

	if err := a.SetMany(context.Background(), map[string]string{KeyToken: "t"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	sub, err := a.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	area.Reset()

	c := waitChange(t, sub)
	if c.Op != OpReset || !c.Touches(KeyToken) {
		t.Fatalf("unexpected change %+v", c)
	}
	if _, ok, _ := a.Get(context.Background(), KeyToken); ok {
		t.Fatal("expected empty area after reset")
	}
}

func TestSubscriptionDropsWhenFull(t *testing.T) {
	area := NewArea()
	a, b := area.Open(), area.Open()
	defer a.Close()
	defer b.Close()

	sub, err := b.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	for i := 0; i < subscriptionBuffer+5; i++ {
		if err := a.SetMany(context.Background(), map[string]string{KeyUsername: "u"}); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if sub.Dropped() != 5 {
		t.Fatalf("expected 5 dropped notifications, got %d", sub.Dropped())
	}
}

func TestAreaDropsClosedListeners(t *testing.T) {
	area := NewArea()
	a := area.Open()
	defer a.Close()

	for i := 0; i < 100; i++ {
		sub, err := a.Subscribe(context.Background())
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		_ = sub.Close()
	}

	area.mu.RLock()
	listeners := len(area.subs)
	area.mu.RUnlock()
	if listeners != 0 {
		t.Fatalf("area listeners = %d, want 0", listeners)
	}
	if n := retainedSubscriptions(a); n != 0 {
		t.Fatalf("handle subscriptions = %d, want 0", n)
	}
}
