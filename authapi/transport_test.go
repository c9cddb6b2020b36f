package authapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/farm2go/adminguard/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBearerTransportReadsStoreAtRequestTime(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
	}))
	defer srv.Close()

	s := store.NewMemoryStore()
	defer s.Close()

	core, logs := observer.New(zap.DebugLevel)
	client := NewBearerClient(StoreTokens{Store: s}, zap.New(core), 0)

	get := func() {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/users", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		resp.Body.Close()
	}

	get()
	if err := s.SetMany(context.Background(), map[string]string{store.KeyToken: "secret.tok.en"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	get()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "" || seen[1] != "Bearer secret.tok.en" {
		t.Fatalf("unexpected Authorization headers %q", seen)
	}

	if logs.Len() == 0 {
		t.Fatal("expected request logs")
	}
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			if strings.Contains(f.String, "secret") {
				t.Fatalf("token leaked in log field %s", f.Key)
			}
		}
	}
}

func TestStaticToken(t *testing.T) {
	tok, ok, err := StaticToken("").Token(context.Background())
	if ok || tok != "" || err != nil {
		t.Fatalf("empty static token = %q %v %v", tok, ok, err)
	}
	tok, ok, _ = StaticToken("x").Token(context.Background())
	if !ok || tok != "x" {
		t.Fatalf("static token = %q %v", tok, ok)
	}
}
